package catalog

import (
	"time"

	"go.uber.org/zap/zapcore"
)

/*
The catalog is a record of what has been extracted.
The catalog is a primitive for verifying, inventorying and auditing
extraction runs.
*/

// Shop holds the counters of one extracted shop
type Shop struct {
	VendorID   string `json:"vendor_id"`
	Country    string `json:"country"`
	NumPages   int    `json:"num_pages"`
	NumRecords int    `json:"num_records"`
	Requests   int    `json:"requests"`
}

// Catalog represents the catalog of one extraction run
type Catalog struct {
	RunID      string    `json:"run_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Timestamp  string    `json:"utc_timestamp"`
	Source     string    `json:"source"`
	Shops      []Shop    `json:"shops"`
	NumRecords int       `json:"num_records"`
	Completed  bool      `json:"completed"`
	Error      string    `json:"error,omitempty"`
}

// Shop returns the entry for a vendor id, adding it when missing.
func (c *Catalog) Shop(vendorID, country string) *Shop {
	for i := range c.Shops {
		if c.Shops[i].VendorID == vendorID {
			return &c.Shops[i]
		}
	}
	c.Shops = append(c.Shops, Shop{VendorID: vendorID, Country: country})
	return &c.Shops[len(c.Shops)-1]
}

func (c *Catalog) Duration() time.Duration {
	if c.EndTime.IsZero() {
		return 0
	}
	return c.EndTime.Sub(c.StartTime)
}

func (c *Catalog) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("run_id", c.RunID)
	enc.AddString("source", c.Source)
	enc.AddString("utc_timestamp", c.Timestamp)
	enc.AddInt("num_shops", len(c.Shops))
	enc.AddInt("num_records", c.NumRecords)
	enc.AddBool("completed", c.Completed)
	enc.AddDuration("duration", c.Duration())
	if c.Error != "" {
		enc.AddString("error", c.Error)
	}
	return nil
}
