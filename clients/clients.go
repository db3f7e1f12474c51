package clients

import (
	"net/http"
	"time"
)

type HTTP struct{ c *http.Client }

// NewHTTP returns a client whose timeout covers converting a whole split.
func NewHTTP() *HTTP { return &HTTP{c: &http.Client{Timeout: 30 * time.Minute}} }
