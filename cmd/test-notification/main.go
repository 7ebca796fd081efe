package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/service"
	"github.com/garyjia/classwallet-submitter/internal/config"
	"github.com/garyjia/classwallet-submitter/internal/domain/event"
	infraLark "github.com/garyjia/classwallet-submitter/internal/infrastructure/external/lark"
)

// Sends a sample outcome notification through Lark IM so the app
// credentials and receive ID can be checked without running a submission.
//
// Usage: test-notification [receive_id]
func main() {
	fmt.Println("=== Lark Notification Test ===")

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Lark.AppID == "" || cfg.Lark.AppSecret == "" {
		log.Fatal("LARK_APP_ID and LARK_APP_SECRET must be set")
	}

	receiveID := cfg.Lark.ReceiveID
	if len(os.Args) > 1 {
		receiveID = os.Args[1]
	}
	if receiveID == "" {
		log.Fatal("No receive ID: pass one as an argument or set LARK_RECEIVE_ID")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:         cfg.Lark.AppID,
		AppSecret:     cfg.Lark.AppSecret,
		ReceiveIDType: cfg.Lark.ReceiveIDType,
		Timeout:       cfg.Lark.APITimeout,
	}, logger)
	messenger := infraLark.NewMessenger(client, cfg.Lark.ReceiveIDType, logger)

	sample := event.NewEvent(event.TypeSubmissionCompleted, "test-notification", "Student One", map[string]interface{}{
		"state":     "STOPPED_FOR_REVIEW",
		"payee":     "Target",
		"amount":    "45.50",
		"po_number": time.Now().Format("20060102_1504"),
	})
	text := "[TEST] " + service.FormatNotification(sample)

	fmt.Printf("Sending to %s (%s)...\n", receiveID, cfg.Lark.ReceiveIDType)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := messenger.SendText(ctx, receiveID, text); err != nil {
		log.Fatalf("Send failed: %v", err)
	}
	fmt.Println("✓ Message sent")
}
