package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Deliver dispatches the personalized messages over every channel the lead
// has a target and a body for. Channels run concurrently and independently;
// transport errors become outcome data, never propagated errors. Outcomes
// are ordered email first, then SMS.
func (p *Pipeline) Deliver(ctx context.Context, lead model.Lead, msgs *model.Messages) []model.DeliveryOutcome {
	if msgs == nil {
		return nil
	}

	sendEmail := lead.Email != "" && msgs.EmailBody != "" && p.email != nil
	sendSMS := lead.Phone != "" && msgs.SMSBody != "" && p.sms != nil

	outcomes := make([]model.DeliveryOutcome, 0, 2)
	var emailOutcome, smsOutcome *model.DeliveryOutcome

	g, gCtx := errgroup.WithContext(ctx)

	if sendEmail {
		emailOutcome = &model.DeliveryOutcome{Channel: model.ChannelEmail}
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(gCtx, p.cfg.Timeouts.Delivery())
			defer cancel()

			if err := p.email.Send(sendCtx, lead.Email, msgs.EmailSubject, msgs.EmailBody); err != nil {
				emailOutcome.Detail = err.Error()
				zap.L().Warn("email delivery failed",
					zap.String("lead_id", lead.ID),
					zap.String("to", lead.Email),
					zap.Error(err))
				return nil
			}
			emailOutcome.Delivered = true
			return nil
		})
	}

	if sendSMS {
		smsOutcome = &model.DeliveryOutcome{Channel: model.ChannelSMS}
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(gCtx, p.cfg.Timeouts.Delivery())
			defer cancel()

			if err := p.sms.Send(sendCtx, lead.Phone, msgs.SMSBody); err != nil {
				smsOutcome.Detail = err.Error()
				zap.L().Warn("sms delivery failed",
					zap.String("lead_id", lead.ID),
					zap.String("to", lead.Phone),
					zap.Error(err))
				return nil
			}
			smsOutcome.Delivered = true
			return nil
		})
	}

	_ = g.Wait()

	if emailOutcome != nil {
		outcomes = append(outcomes, *emailOutcome)
	}
	if smsOutcome != nil {
		outcomes = append(outcomes, *smsOutcome)
	}
	return outcomes
}
