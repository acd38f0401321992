package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type FCMProvider struct {
	client *messaging.Client
	tokens []DeviceToken
	logger *zap.Logger
}

// NewFCMProvider initializes the provider from base64 credentials when given,
// falling back to a service account file.
func NewFCMProvider(ctx context.Context, encodedCreds, credentialsFile string, tokens []DeviceToken, logger *zap.Logger) (*FCMProvider, error) {
	var opt option.ClientOption

	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		logger.Info("FCM provider initializing from environment credentials")
	} else {
		if credentialsFile == "" {
			return nil, fmt.Errorf("no firebase credentials configured")
		}
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("firebase credentials file %s: %w", credentialsFile, err)
		}
		opt = option.WithCredentialsFile(credentialsFile)
		logger.Info("FCM provider initializing from file", zap.String("path", credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMProvider{client: client, tokens: tokens, logger: logger}, nil
}

// Deliver sends r to every registered device one message at a time. It fails
// only when every send failed.
func (p *FCMProvider) Deliver(ctx context.Context, r Reminder) error {
	if len(p.tokens) == 0 {
		return nil
	}

	data := map[string]string{
		"identifier": r.Identifier,
		"category":   string(r.Kind),
	}
	for k, v := range r.Data {
		data[k] = fmt.Sprintf("%v", v)
	}

	sent, failed := 0, 0
	for _, token := range p.tokens {
		message := &messaging.Message{
			Token: token.Token,
			Notification: &messaging.Notification{
				Title: r.Title,
				Body:  r.Body,
			},
			Data: data,
		}
		if token.Platform == "android" || token.Platform == "" {
			message.Android = &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
			}
		}

		if _, err := p.client.Send(ctx, message); err != nil {
			p.logger.Warn("FCM send failed", zap.String("platform", token.Platform), zap.Error(err))
			failed++
			continue
		}
		sent++
	}

	p.logger.Debug("FCM delivery finished", zap.Int("sent", sent), zap.Int("failed", failed))
	if sent == 0 && failed > 0 {
		return fmt.Errorf("all push notifications failed")
	}
	return nil
}

// LogProvider writes reminders to the log instead of a device.
type LogProvider struct {
	Logger *zap.Logger
}

func (p LogProvider) Deliver(_ context.Context, r Reminder) error {
	p.Logger.Info("reminder",
		zap.String("kind", string(r.Kind)),
		zap.String("identifier", r.Identifier),
		zap.String("title", r.Title),
		zap.String("body", r.Body))
	return nil
}
