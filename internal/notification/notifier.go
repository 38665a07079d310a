package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-timeoff/internal/approval"
	"go-timeoff/internal/domain"
	"go-timeoff/internal/employee"
	"go-timeoff/internal/events"
	"go-timeoff/internal/request"
	"go-timeoff/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RequestStore is the part of the request repository the notifier reads and writes.
type RequestStore interface {
	FindByID(ctx context.Context, id string) (*request.Request, error)
	SaveNotificationRef(ctx context.Context, id uuid.UUID, ref datatypes.JSON) error
}

// Ref is persisted as the request's notification correlation data.
type Ref struct {
	Telegram *TelegramRef `json:"telegram,omitempty"`
}

type TelegramRef struct {
	ChatID    string `json:"chat_id"`
	MessageID int64  `json:"message_id"`
}

func decodeRef(raw datatypes.JSON) (Ref, error) {
	var ref Ref
	if len(raw) == 0 || string(raw) == "null" {
		return ref, nil
	}
	err := json.Unmarshal(raw, &ref)
	return ref, err
}

type NotifierDeps struct {
	Store      RequestStore
	Directory  employee.Directory
	Router     approval.Router
	Translator *Translator
	// Messenger and ChatID enable Telegram; Mailer enables email. Either may be unset.
	Messenger Messenger
	ChatID    string
	Mailer    EmailSender
	Locale    string
}

// Notifier delivers one notification job. It makes a single attempt per
// channel and reports the joined failures to the caller for logging.
type Notifier struct {
	deps   NotifierDeps
	logger *zap.Logger
}

func NewNotifier(deps NotifierDeps, logger ...*zap.Logger) *Notifier {
	l := zap.L().Named("notification.notifier")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.notifier")
	}
	if deps.Locale == "" && deps.Translator != nil {
		deps.Locale = deps.Translator.DefaultLocale()
	}
	return &Notifier{deps: deps, logger: l}
}

func (n *Notifier) telegramEnabled() bool {
	return n.deps.Messenger != nil && n.deps.ChatID != ""
}

func (n *Notifier) Handle(ctx context.Context, job events.NotificationJob) error {
	log := contextutil.GetLogger(ctx, n.logger).With(
		zap.String("request_id", job.RequestID),
		zap.String("kind", string(job.Kind)),
	)

	switch job.Kind {
	case events.NotificationNew:
		return n.handleNew(ctx, log, job)
	case events.NotificationUpdate:
		return n.handleUpdate(ctx, log, job)
	}
	return fmt.Errorf("unknown notification kind %q", job.Kind)
}

func (n *Notifier) handleNew(ctx context.Context, log *zap.Logger, job events.NotificationJob) error {
	r, err := n.deps.Store.FindByID(ctx, job.RequestID)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	requester, err := n.deps.Directory.Get(ctx, r.RequesterID.String())
	if err != nil {
		return fmt.Errorf("load requester: %w", err)
	}

	text := n.render(r, requester, nil)
	var errs []error

	if n.telegramEnabled() {
		messageID, err := n.deps.Messenger.SendMessage(ctx, n.deps.ChatID, text)
		if err != nil {
			errs = append(errs, err)
		} else {
			ref := Ref{Telegram: &TelegramRef{ChatID: n.deps.ChatID, MessageID: messageID}}
			if err := n.saveRef(ctx, r.ID, ref); err != nil {
				errs = append(errs, err)
			}
			log.Info("telegram notification sent", zap.Int64("message_id", messageID))
		}
	}

	if n.deps.Mailer != nil {
		to, err := n.approverEmails(ctx, r.RequesterID.String())
		if err != nil {
			errs = append(errs, err)
		} else if len(to) > 0 {
			subject := n.t("email_subject_new", map[string]any{"Code": r.Code})
			if err := n.deps.Mailer.Send(ctx, to, subject, text); err != nil {
				errs = append(errs, fmt.Errorf("send email: %w", err))
			} else {
				log.Info("email notification sent", zap.Int("recipients", len(to)))
			}
		}
	}

	return errors.Join(errs...)
}

func (n *Notifier) handleUpdate(ctx context.Context, log *zap.Logger, job events.NotificationJob) error {
	r, err := n.deps.Store.FindByID(ctx, job.RequestID)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	requester, err := n.deps.Directory.Get(ctx, r.RequesterID.String())
	if err != nil {
		return fmt.Errorf("load requester: %w", err)
	}

	approverID := job.ActorID
	if r.ApproverID != nil {
		approverID = r.ApproverID.String()
	}
	approver, err := n.deps.Directory.Get(ctx, approverID)
	if err != nil {
		return fmt.Errorf("load approver: %w", err)
	}

	text := n.render(r, requester, &approver)
	var errs []error

	if n.telegramEnabled() {
		if err := n.updateTelegram(ctx, log, r, text); err != nil {
			errs = append(errs, err)
		}
	}

	if n.deps.Messenger != nil && requester.TelegramChatID != nil && *requester.TelegramChatID != n.deps.ChatID {
		if _, err := n.deps.Messenger.SendMessage(ctx, *requester.TelegramChatID, text); err != nil {
			errs = append(errs, fmt.Errorf("direct message: %w", err))
		}
	}

	if n.deps.Mailer != nil && requester.Email != "" {
		subject := n.t("email_subject_update", map[string]any{
			"Code":   r.Code,
			"Status": n.t("status_"+string(r.Status), nil),
		})
		if err := n.deps.Mailer.Send(ctx, []string{requester.Email}, subject, text); err != nil {
			errs = append(errs, fmt.Errorf("send email: %w", err))
		}
	}

	return errors.Join(errs...)
}

// updateTelegram edits the message recorded at creation, or posts a new one
// when the request has no correlation data yet.
func (n *Notifier) updateTelegram(ctx context.Context, log *zap.Logger, r *request.Request, text string) error {
	ref, err := decodeRef(r.NotificationRef)
	if err != nil {
		log.Warn("notification ref unreadable, sending a new message", zap.Error(err))
		ref = Ref{}
	}

	if ref.Telegram != nil {
		if err := n.deps.Messenger.EditMessageText(ctx, ref.Telegram.ChatID, ref.Telegram.MessageID, text); err != nil {
			return err
		}
		log.Info("telegram notification edited", zap.Int64("message_id", ref.Telegram.MessageID))
		return nil
	}

	messageID, err := n.deps.Messenger.SendMessage(ctx, n.deps.ChatID, text)
	if err != nil {
		return err
	}
	log.Info("telegram notification sent", zap.Int64("message_id", messageID))
	return n.saveRef(ctx, r.ID, Ref{Telegram: &TelegramRef{ChatID: n.deps.ChatID, MessageID: messageID}})
}

func (n *Notifier) saveRef(ctx context.Context, id uuid.UUID, ref Ref) error {
	raw, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	if err := n.deps.Store.SaveNotificationRef(ctx, id, datatypes.JSON(raw)); err != nil {
		return fmt.Errorf("save notification ref: %w", err)
	}
	return nil
}

func (n *Notifier) approverEmails(ctx context.Context, requesterID string) ([]string, error) {
	if n.deps.Router == nil {
		return nil, nil
	}
	scope, err := n.deps.Router.EligibleApprovers(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("eligible approvers: %w", err)
	}

	var out []string
	for _, id := range scope.ApproverIDs {
		p, err := n.deps.Directory.Get(ctx, id.String())
		if err != nil {
			n.logger.Warn("approver profile unavailable", zap.String("approver_id", id.String()), zap.Error(err))
			continue
		}
		if p.Email != "" {
			out = append(out, p.Email)
		}
	}
	return out, nil
}

func (n *Notifier) t(id string, data map[string]any) string {
	return n.deps.Translator.T(n.deps.Locale, id, data)
}

func (n *Notifier) render(r *request.Request, requester employee.Profile, approver *employee.Profile) string {
	status := n.t("status_"+string(r.Status), nil)

	lines := make([]string, 0, 8)
	if approver == nil {
		lines = append(lines, n.t("header_new", map[string]any{"Code": r.Code}))
	} else {
		lines = append(lines, n.t("header_update", map[string]any{"Code": r.Code, "Status": status}))
	}
	lines = append(lines,
		n.t("line_type", map[string]any{"Type": n.t("type_"+string(r.Type), nil)}),
		n.t("line_requester", map[string]any{"Requester": requester.FullName}),
		n.renderDetails(r.Details()),
		n.t("line_reason", map[string]any{"Reason": r.Reason}),
		n.t("line_status", map[string]any{"Status": status}),
	)
	if approver != nil {
		lines = append(lines, n.t("line_approver", map[string]any{"Approver": approver.FullName}))
		if r.ApproverNote != nil && *r.ApproverNote != "" {
			lines = append(lines, n.t("line_note", map[string]any{"Note": *r.ApproverNote}))
		}
	}
	return strings.Join(lines, "\n")
}

func (n *Notifier) renderDetails(d request.Details) string {
	switch v := d.(type) {
	case request.LeaveDetails:
		return n.t("detail_leave", map[string]any{
			"Start":       v.StartDate.Format(domain.DateLayout),
			"End":         v.EndDate.Format(domain.DateLayout),
			"Granularity": n.t("granularity_"+string(v.Granularity), nil),
			"Days":        request.LeaveDays(v).String(),
		})
	case request.OvertimeDetails:
		return n.t("detail_overtime", map[string]any{
			"Date":  v.Date.Format(domain.DateLayout),
			"Hours": v.Hours.String(),
		})
	case request.LateArrivalDetails:
		return n.t("detail_late_arrival", map[string]any{
			"Date":     v.Date.Format(domain.DateLayout),
			"Expected": v.ExpectedArrival.UTC().Format("15:04"),
		})
	case request.BusinessTripDetails:
		return n.t("detail_business_trip", map[string]any{
			"Location": v.Location,
			"Purpose":  v.Purpose,
			"Start":    v.StartDate.Format(domain.DateLayout),
			"End":      v.EndDate.Format(domain.DateLayout),
		})
	}
	return ""
}
