package mail

import (
	"context"
	"testing"
)

func TestOTPMailerRequiresConfiguration(t *testing.T) {
	mailer := NewOTPMailer("", "", "", "", "")
	if err := mailer.SendVerificationCode(context.Background(), "user@example.com", "123456"); err == nil {
		t.Fatal("expected error when mailer is unconfigured")
	}

	var nilMailer *OTPMailer
	if err := nilMailer.SendPasswordResetCode(context.Background(), "user@example.com", "123456"); err == nil {
		t.Fatal("expected error for nil mailer")
	}
}

func TestOTPMailerHonorsCancelledContext(t *testing.T) {
	mailer := NewOTPMailer("smtp.example.com", "587", "user", "pass", "noreply@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := mailer.SendVerificationCode(ctx, "user@example.com", "123456"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
