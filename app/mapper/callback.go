package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-dibs/app/entity"
	"github.com/vibast-solutions/ms-go-dibs/app/types"
)

func CallbackToRecord(item *entity.PaymentCallback) types.CallbackRecord {
	if item == nil {
		return types.CallbackRecord{}
	}

	return types.CallbackRecord{
		ID:            item.ID,
		Provider:      item.Provider,
		RequestID:     item.RequestID,
		Status:        callbackStatusName(item.Status),
		PaymentStatus: derefString(item.PaymentStatus),
		Error:         derefString(item.Error),
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func CallbacksToRecords(items []*entity.PaymentCallback) []types.CallbackRecord {
	records := make([]types.CallbackRecord, 0, len(items))
	for _, item := range items {
		records = append(records, CallbackToRecord(item))
	}
	return records
}

func callbackStatusName(status int32) string {
	switch status {
	case entity.CallbackStatusProcessed:
		return "processed"
	case entity.CallbackStatusIgnored:
		return "ignored"
	case entity.CallbackStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
