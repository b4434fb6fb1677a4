package cloudevents

import (
	"time"
)

// SpecVersion is the CloudEvents version emitted by the factory
const SpecVersion = "1.0"

// Source attributes of put wall events. Events saved by the Temporal worker
// carry SourcePutWallWorker so the API can pick them up for its KPIs.
const (
	SourcePutWall       = "/wms/putwall-service"
	SourcePutWallWorker = "/wms/putwall-service/worker"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
}
