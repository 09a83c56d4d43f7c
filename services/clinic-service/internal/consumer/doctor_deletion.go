package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

// TopicDoctorDeletionRequested carries {"doctor_id": "..."}; the message key
// is used when the body has no id.
const TopicDoctorDeletionRequested = "clinic.doctor.deletion.requested.v1"

type DoctorDeleter interface {
	Delete(ctx context.Context, doctorID string) error
}

type deletionRequest struct {
	DoctorID string `json:"doctor_id"`
}

func DoctorDeletionHandler(deleter DoctorDeleter) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var req deletionRequest
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &req); err != nil {
				return fmt.Errorf("%w: decode deletion request: %v", ErrUnprocessable, err)
			}
		}
		id := strings.TrimSpace(req.DoctorID)
		if id == "" {
			id = strings.TrimSpace(string(msg.Key))
		}
		if id == "" {
			return fmt.Errorf("%w: deletion request without doctor id", ErrUnprocessable)
		}
		return deleter.Delete(ctx, id)
	}
}
