package internal

import "go.uber.org/zap/zapcore"

// Shop is a vendor account whose products are extracted.
type Shop struct {
	VendorID string `json:"vendor_id" yaml:"vendor_id"`
	Country  string `json:"country" yaml:"country"`
	ClientID string `json:"#client_id" yaml:"#client_id"`
}

// MarshalLogObject keeps the client id out of the logs.
func (s Shop) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("vendor_id", s.VendorID)
	enc.AddString("country", s.Country)
	return nil
}
