package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-lease-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers pushing lease decisions to the
// owner's registered browser subscriptions.
type WorkerPool struct {
	size    int
	jobs    chan uint64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uint64, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case leaseID := <-wp.jobs:
			log.Printf("Worker %d processing lease %d", id, leaseID)
			wp.sendForLease(ctx, leaseID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool. Satisfies lease.Notifier.
func (wp *WorkerPool) Dispatch(leaseID uint64) {
	wp.jobs <- leaseID
}

// sendForLease fetches the lease owner's subscriptions and pushes the
// decision to each of them.
func (wp *WorkerPool) sendForLease(ctx context.Context, leaseID uint64) {
	var l model.Lease
	if err := wp.db.WithContext(ctx).First(&l, leaseID).Error; err != nil {
		log.Printf("Error fetching lease %d: %v", leaseID, err)
		return
	}

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).
		Where("user_id = ?", l.UserID).
		Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for user %d: %v", l.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	message := decisionMessage(&l)
	log.Printf("Sending %d notifications for lease %d", len(subscriptions), leaseID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func decisionMessage(l *model.Lease) string {
	switch l.Status {
	case model.LeaseApproved:
		if l.ExpiresAt != nil {
			return fmt.Sprintf("Your reservation for slot %d is approved. Arrive before %s.",
				l.SlotID, l.ExpiresAt.Format("15:04"))
		}
		return fmt.Sprintf("Your reservation for slot %d is approved.", l.SlotID)
	case model.LeaseRejected:
		return fmt.Sprintf("Your reservation for slot %d was rejected.", l.SlotID)
	default:
		return fmt.Sprintf("Your reservation for slot %d is now %s.", l.SlotID, l.Status)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
