package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Channel is an out-of-band delivery route for codes.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notifier delivers a code to an address over a channel.
type Notifier interface {
	DeliverOTP(ctx context.Context, channel Channel, address, code string) error
}

// OTPSender is a single transport.
type OTPSender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// Gateway routes deliveries to the email or SMS transport and bounds each attempt.
type Gateway struct {
	email   OTPSender
	sms     OTPSender
	timeout time.Duration
	log     *zap.Logger
}

// NewGateway constructs a Gateway. A nil transport makes its channel fail.
func NewGateway(email, sms OTPSender, timeout time.Duration, log *zap.Logger) *Gateway {
	return &Gateway{email: email, sms: sms, timeout: timeout, log: log}
}

// DeliverOTP sends code to address on channel.
func (g *Gateway) DeliverOTP(ctx context.Context, channel Channel, address, code string) error {
	var sender OTPSender
	switch channel {
	case ChannelEmail:
		sender = g.email
	case ChannelSMS:
		sender = g.sms
	default:
		return fmt.Errorf("unsupported channel: %s", channel)
	}
	if sender == nil {
		return fmt.Errorf("%s transport not configured", channel)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := sender.SendOTP(ctx, address, code)
	fields := []zap.Field{
		zap.String("channel", string(channel)),
		zap.String("recipient", address),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		g.log.Warn("otp delivery failed", append(fields, zap.Error(err))...)
		return err
	}
	g.log.Info("otp delivered", fields...)
	return nil
}

func otpMessage(code string) string {
	return "Your OTP is " + code
}
