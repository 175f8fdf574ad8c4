package internal

const (
	FieldUTCTimestamp = "utc_timestamp"
	FieldVendorID     = "vendor_id"
	FieldCountry      = "country"

	// TimestampLayout is the layout of the run timestamp added to every record.
	TimestampLayout = "2006-01-02 15:04:05"
)

// AnnotationFields lists the columns Annotate adds, in the order they are set.
var AnnotationFields = []string{
	FieldUTCTimestamp,
	FieldVendorID,
	FieldCountry,
}

// Annotate returns a copy of record carrying the run timestamp and the shop
// identity. Existing fields with the same names are overwritten.
func Annotate(record *Record, timestamp, vendorID, country string) *Record {
	annotated := &Record{}
	if record != nil {
		annotated = record.Clone()
	}

	annotated.Set(FieldUTCTimestamp, timestamp)
	annotated.Set(FieldVendorID, vendorID)
	annotated.Set(FieldCountry, country)
	return annotated
}
