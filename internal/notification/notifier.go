package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dimasprabowo/procurement-management/internal/auth"
	"github.com/dimasprabowo/procurement-management/internal/core/events"
)

// Notifier turns domain events into outbound mail. Subscribers run off the
// request path; a delivery failure is logged by the bus and never blocks the
// originating mutation.
type Notifier struct {
	mailer        auth.Mailer
	procurementTo string
	logger        *slog.Logger
}

func NewNotifier(mailer auth.Mailer, procurementTo string, logger *slog.Logger) *Notifier {
	return &Notifier{
		mailer:        mailer,
		procurementTo: procurementTo,
		logger:        logger,
	}
}

// Register wires the notifier onto the bus.
func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventIndentApproved, n.handleIndentStatus)
	bus.Subscribe(events.EventIndentRejected, n.handleIndentStatus)
	bus.Subscribe(events.EventRFPGenerated, n.handleRFPGenerated)
	bus.Subscribe(events.EventSupplierStageChanged, n.handleSupplierStage)
}

func (n *Notifier) handleIndentStatus(_ context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.EventType())
	}

	subject := fmt.Sprintf("Indent %v is now %v", data["indent_id"], data["status"])
	body := fmt.Sprintf("Indent %v was moved to %v by user %v.", data["indent_id"], data["status"], data["actor_id"])
	return n.mailer.Send(n.procurementTo, subject, body)
}

func (n *Notifier) handleRFPGenerated(_ context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.EventType())
	}

	document, _ := data["document"].(string)
	subject := fmt.Sprintf("RFP %v issued for indent %v", data["rfp_number"], data["indent_id"])
	n.logger.Info("RFP document ready for distribution", "rfp_number", data["rfp_number"], "indent_id", data["indent_id"])
	return n.mailer.Send(n.procurementTo, subject, document)
}

func (n *Notifier) handleSupplierStage(_ context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.EventType())
	}

	subject := fmt.Sprintf("Supplier %v moved to %v", data["supplier_id"], data["stage"])
	body := fmt.Sprintf("Supplier %v was moved to stage %v by user %v.", data["supplier_id"], data["stage"], data["actor_id"])
	return n.mailer.Send(n.procurementTo, subject, body)
}
