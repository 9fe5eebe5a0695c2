package common

import (
	"fmt"
	"log"

	dwh "github.com/nat-echlin/dwhooks"
)

var STAFF_DISC_WH_URL string

// send an alert to the staff alerts webhook. Does nothing when no
// webhook is configured.
func SendStaffAlert(
	desc string,
) error {
	if STAFF_DISC_WH_URL == "" {
		return nil
	}

	msg := dwh.NewMessage(desc)

	wh := dwh.NewWebhook(STAFF_DISC_WH_URL)
	status, err := wh.Send(msg)

	if err != nil {
		return fmt.Errorf("failed to send to webhook, %v", err)
	}
	expectedStatus := 204
	if status != expectedStatus {
		return fmt.Errorf("bad status; expected: %d, got: %d", expectedStatus, status)
	}
	return nil
}

// logs the given message, and sends it to the staff alerts webhook
func LogAndSendAlertF(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	log.Print(msg)

	err := SendStaffAlert(msg)
	if err != nil {
		log.Printf("failed to send staff alert, %v", err)
	}
}
