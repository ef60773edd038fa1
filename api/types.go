// types.go - Request/Response Typen des Inspektions-Servers
// Enthaelt: StatusError, VersionResponse, TablesResponse, DevicesResponse,
// RegistryResponse, MemoryResponse
package api

import (
	"fmt"

	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/trainer"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the embedforge server logs for details"
	}
}

type VersionResponse struct {
	Version string `json:"version"`
}

// TablesResponse lists the tables of a plan in declaration order.
type TablesResponse struct {
	ID     string              `json:"id"`
	Tables []trainer.TablePlan `json:"tables"`
}

type DevicesResponse struct {
	Devices []ml.DeviceInfo `json:"devices"`
}

// RegistryResponse is the registry of one device for one phase.
type RegistryResponse struct {
	Device  ml.DeviceInfo       `json:"device"`
	Phase   string              `json:"phase"`
	Entries []trainer.EntryPlan `json:"entries"`
}

type MemoryResponse struct {
	Devices []ml.DeviceMemory `json:"devices"`
	Total   uint64            `json:"total"`
	Human   string            `json:"total_human"`
}
