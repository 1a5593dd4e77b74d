package bridge

import (
	"context"
	"errors"

	"moto-hail/internal/admin"
	"moto-hail/internal/auth"
	"moto-hail/internal/contracts"
	"moto-hail/internal/domain/job"
	"moto-hail/internal/domain/offer"
	"moto-hail/internal/domain/ride"
	"moto-hail/internal/logger"
	"moto-hail/internal/observability"
)

// Publisher is the broker surface the bridge needs.
type Publisher interface {
	PublishEvent(exchange, prefix, kind string, payload any) error
}

// Pusher is the WebSocket surface the bridge needs.
type Pusher interface {
	Send(role auth.Role, subject, event string, payload any)
}

// Archiver persists terminal records out of process.
type Archiver interface {
	SaveRide(ctx context.Context, r admin.Ride) error
	SaveOrder(ctx context.Context, o admin.Order) error
}

// DriverBridge forwards one driver session's events into the admin
// store and out to the broker, push hub, and archive. Every sink is
// optional and best effort: a failing sink is logged and skipped, the
// session itself never notices.
type DriverBridge struct {
	driverID      string
	adminDriverID int

	store *admin.Store
	pub   Publisher
	hub   Pusher
	arch  Archiver
	log   *logger.Logger
}

// NewDriverBridge wires the sinks for one driver session. adminDriverID
// is the driver's id in the admin store; pub, hub, and arch may be nil.
func NewDriverBridge(driverID string, adminDriverID int, store *admin.Store, pub Publisher, hub Pusher, arch Archiver, log *logger.Logger) *DriverBridge {
	return &DriverBridge{
		driverID:      driverID,
		adminDriverID: adminDriverID,
		store:         store,
		pub:           pub,
		hub:           hub,
		arch:          arch,
		log:           log,
	}
}

// OfferReceived publishes and pushes the new offer.
func (b *DriverBridge) OfferReceived(o offer.Offer) {
	observability.OffersGenerated.WithLabelValues(o.Kind.String()).Inc()

	msg := contracts.OfferMessage{
		OfferID:  o.ID,
		DriverID: b.driverID,
		Kind:     o.Kind.String(),
		Fare:     o.Fare,
		Pickup:   o.Pickup,
		Dropoff:  o.Dropoff,
		Distance: o.DistanceToPickup,
		Note:     o.Note,
	}
	b.publish(contracts.JobTopicExchange, contracts.OfferPrefix, "created", msg)
	b.push("offer", msg)
}

// JobAccepted records the new job in the admin store. Parcel jobs become
// delivery orders; ride and cheap jobs become ride records.
func (b *DriverBridge) JobAccepted(j job.Job) {
	if j.Kind == offer.KindParcel {
		err := b.store.AddOrder(admin.Order{
			ID:       j.ID,
			DriverID: &b.adminDriverID,
			Status:   admin.OrderAssigned,
			Total:    float64(j.Fare),
			Items:    []string{j.Note},
		})
		b.recordStoreErr("order", "add", err)
		if err == nil {
			observability.StoreMutations.WithLabelValues("order", "add").Inc()
		}
	} else {
		err := b.store.AddRide(admin.Ride{
			ID:              j.ID,
			DriverID:        &b.adminDriverID,
			PickupLocation:  j.Pickup,
			DropoffLocation: j.Dropoff,
			Status:          admin.RideAssigned,
			Fare:            float64(j.Fare),
		})
		b.recordStoreErr("ride", "add", err)
		if err == nil {
			observability.StoreMutations.WithLabelValues("ride", "add").Inc()
		}
	}

	b.publishJob(j, "accepted")
	b.push("job", b.jobMessage(j))
}

// JobUpdated mirrors the lifecycle transition into the store records.
func (b *DriverBridge) JobUpdated(j job.Job) {
	switch j.Status {
	case job.StatusCompleted:
		observability.JobsCompleted.Inc()
	case job.StatusCancelled:
		observability.JobsCancelled.Inc()
	}

	if j.Kind == offer.KindParcel {
		if next, ok := orderStatusFor(j.Status); ok {
			err := b.store.UpdateOrderStatus(j.ID, next)
			b.recordStoreErr("order", "status", err)
			if err == nil {
				observability.StoreMutations.WithLabelValues("order", "status").Inc()
			}
		}
	} else {
		if next, ok := rideStatusFor(j.Status); ok {
			err := b.store.UpdateRideStatus(j.ID, next)
			b.recordStoreErr("ride", "status", err)
			if err == nil {
				observability.StoreMutations.WithLabelValues("ride", "status").Inc()
			}
		}
	}

	b.publishJob(j, j.Status.String())
	b.push("job", b.jobMessage(j))
}

// CountdownTick pushes the remaining pickup wait to the driver client.
func (b *DriverBridge) CountdownTick(j job.Job, remaining int) {
	b.push("countdown", map[string]any{
		"job_id":    j.ID,
		"remaining": remaining,
	})
}

// JobClosed archives the finished record.
func (b *DriverBridge) JobClosed(j job.Job) {
	if b.arch == nil {
		return
	}
	ctx := context.Background()

	var err error
	if j.Kind == offer.KindParcel {
		if o, gerr := b.store.Order(j.ID); gerr == nil {
			err = b.arch.SaveOrder(ctx, o)
		}
	} else {
		if r, gerr := b.store.Ride(j.ID); gerr == nil {
			err = b.arch.SaveRide(ctx, r)
		}
	}
	if err != nil {
		b.log.Error(context.Background(), "archive_failed", "failed to archive finished job", err, map[string]any{
			"job_id": j.ID,
		})
	}
}

func (b *DriverBridge) jobMessage(j job.Job) contracts.JobStatusMessage {
	return contracts.JobStatusMessage{
		JobID:    j.ID,
		DriverID: b.driverID,
		Kind:     j.Kind.String(),
		Status:   j.Status.String(),
		Fare:     j.Fare,
		Pickup:   j.Pickup,
		Dropoff:  j.Dropoff,
	}
}

func (b *DriverBridge) publishJob(j job.Job, kind string) {
	b.publish(contracts.JobTopicExchange, contracts.JobStatusPrefix, kind, b.jobMessage(j))
}

func (b *DriverBridge) publish(exchange, prefix, kind string, payload any) {
	if b.pub == nil {
		return
	}
	if err := b.pub.PublishEvent(exchange, prefix, kind, payload); err != nil {
		b.log.Error(context.Background(), "publish_failed", "failed to publish event", err, map[string]any{
			"exchange": exchange,
			"kind":     kind,
		})
	}
}

func (b *DriverBridge) push(event string, payload any) {
	if b.hub == nil {
		return
	}
	b.hub.Send(auth.RoleDriver, b.driverID, event, payload)
}

func (b *DriverBridge) recordStoreErr(entity, action string, err error) {
	if err == nil || errors.Is(err, admin.ErrInvalidTransition) {
		// repeat transitions from intermediate job states are expected
		return
	}
	b.log.Error(context.Background(), "store_record_failed", "failed to record job in admin store", err, map[string]any{
		"entity": entity,
		"action": action,
	})
}

// rideStatusFor maps a job transition onto the ride record graph.
// On-way and arrived stay in assigned.
func rideStatusFor(st job.Status) (admin.RideStatus, bool) {
	switch st {
	case job.StatusStarted:
		return admin.RideInProgress, true
	case job.StatusCompleted:
		return admin.RideCompleted, true
	case job.StatusCancelled:
		return admin.RideCancelled, true
	default:
		return "", false
	}
}

// orderStatusFor maps a job transition onto the order record graph.
func orderStatusFor(st job.Status) (admin.OrderStatus, bool) {
	switch st {
	case job.StatusOnWay, job.StatusStarted:
		return admin.OrderInDelivery, true
	case job.StatusCompleted:
		return admin.OrderCompleted, true
	case job.StatusCancelled:
		return admin.OrderCancelled, true
	default:
		return "", false
	}
}

// CustomerBridge forwards one customer session's events. The live
// request is mirrored as a ride record so the dashboard sees demand even
// before a real driver is attached.
type CustomerBridge struct {
	customerID      string
	adminCustomerID int

	store *admin.Store
	pub   Publisher
	hub   Pusher
	log   *logger.Logger
}

// NewCustomerBridge wires the sinks for one customer session. pub and
// hub may be nil.
func NewCustomerBridge(customerID string, adminCustomerID int, store *admin.Store, pub Publisher, hub Pusher, log *logger.Logger) *CustomerBridge {
	return &CustomerBridge{
		customerID:      customerID,
		adminCustomerID: adminCustomerID,
		store:           store,
		pub:             pub,
		hub:             hub,
		log:             log,
	}
}

// RideUpdated mirrors the request transition everywhere.
func (b *CustomerBridge) RideUpdated(r ride.Ride) {
	switch r.Status {
	case ride.StatusSearching, ride.StatusQueued:
		err := b.store.AddRide(admin.Ride{
			ID:              r.ID,
			CustomerID:      b.adminCustomerID,
			PickupLocation:  r.Pickup,
			DropoffLocation: r.Dropoff,
			Status:          admin.RidePending,
		})
		if err != nil && !errors.Is(err, admin.ErrDuplicateID) {
			b.log.Error(context.Background(), "store_record_failed", "failed to record ride request", err, map[string]any{
				"ride_id": r.ID,
			})
		}
		if err == nil {
			observability.StoreMutations.WithLabelValues("ride", "add").Inc()
		}

	case ride.StatusDriverAssigned:
		observability.RidesMatched.WithLabelValues(r.Mode.String()).Inc()
		b.updateRecord(r.ID, admin.RideAssigned)

	case ride.StatusDriverArrived:
		b.updateRecord(r.ID, admin.RideInProgress)

	case ride.StatusCompleted:
		b.updateRecord(r.ID, admin.RideCompleted)

	case ride.StatusTimeout:
		observability.RidesTimedOut.Inc()
		b.updateRecord(r.ID, admin.RideCancelled)
	}

	msg := contracts.RideStatusMessage{
		RideID:     r.ID,
		CustomerID: b.customerID,
		Mode:       r.Mode.String(),
		Status:     r.Status.String(),
		Pickup:     r.Pickup,
		Dropoff:    r.Dropoff,
	}
	if r.Driver != nil {
		msg.DriverName = r.Driver.Name
	}
	if b.pub != nil {
		if err := b.pub.PublishEvent(contracts.RideTopicExchange, contracts.RideStatusPrefix, r.Status.String(), msg); err != nil {
			b.log.Error(context.Background(), "publish_failed", "failed to publish ride status", err, map[string]any{
				"ride_id": r.ID,
			})
		}
	}
	if b.hub != nil {
		b.hub.Send(auth.RoleCustomer, b.customerID, "ride", msg)
	}
}

func (b *CustomerBridge) updateRecord(rideID string, next admin.RideStatus) {
	err := b.store.UpdateRideStatus(rideID, next)
	if err != nil && !errors.Is(err, admin.ErrInvalidTransition) {
		b.log.Error(context.Background(), "store_record_failed", "failed to update ride record", err, map[string]any{
			"ride_id": rideID,
		})
	}
	if err == nil {
		observability.StoreMutations.WithLabelValues("ride", "status").Inc()
	}
}
