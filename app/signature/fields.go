package signature

// Each gateway operation signs its own fixed field sequence.

func CreateFields(merchant, orderID, currency, amount string) []Field {
	return []Field{
		{Key: "merchant", Value: merchant},
		{Key: "orderid", Value: orderID},
		{Key: "currency", Value: currency},
		{Key: "amount", Value: amount},
	}
}

func CallbackFields(transact, amount, currency string) []Field {
	return []Field{
		{Key: "transact", Value: transact},
		{Key: "amount", Value: amount},
		{Key: "currency", Value: currency},
	}
}

func CancelFields(merchant, orderID, transact string) []Field {
	return []Field{
		{Key: "merchant", Value: merchant},
		{Key: "orderid", Value: orderID},
		{Key: "transact", Value: transact},
	}
}

// CaptureFields is shared by capture and refund.
func CaptureFields(merchant, orderID, transact, amount string) []Field {
	return []Field{
		{Key: "merchant", Value: merchant},
		{Key: "orderid", Value: orderID},
		{Key: "transact", Value: transact},
		{Key: "amount", Value: amount},
	}
}
