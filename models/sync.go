package models

import "time"

/************************************************
/**** MARK: NETWORK TYPES ****/
/************************************************/
const NETWORK_GPRS = "gprs"
const NETWORK_EDGE = "edge"
const NETWORK_2G = "2g"
const NETWORK_3G = "3g"
const NETWORK_4G = "4g"
const NETWORK_WIFI = "wifi"

/************************************************
/**** MARK: DATA BUDGETS ****/
/************************************************/
const DATA_BUDGET_NORMAL = ""
const DATA_BUDGET_SAVER = "saver"
const DATA_BUDGET_ULTRA_SAVER = "ultra_saver"

/************************************************
/**** MARK: SYNC STATUS ****/
/************************************************/
const SYNC_STATUS_IDLE = "IDLE"
const SYNC_STATUS_SYNCING = "SYNCING"
const SYNC_STATUS_ERROR = "ERROR"

/************************************************
/**** MARK: IMAGE QUALITY ****/
/************************************************/
const IMAGE_QUALITY_LOW = "low"
const IMAGE_QUALITY_MEDIUM = "medium"
const IMAGE_QUALITY_HIGH = "high"

// SyncState is the per-user delta-sync cursor.
type SyncState struct {
	UserID         string    `json:"user_id"`
	LastSyncAt     time.Time `json:"last_sync_at"`
	ServerVersion  int64     `json:"server_version"` // monotonic, timestamp-based
	ClientVersion  int64     `json:"client_version"`
	Status         string    `json:"status"`
	PendingChanges int       `json:"pending_changes"`
	ErrorCount     int       `json:"error_count"`
}

// EntityChange is one changed entity in a delta-sync response.
type EntityChange struct {
	Entity  string      `json:"entity"`
	ID      string      `json:"id"`
	Action  string      `json:"action"` // create | update | delete
	Data    interface{} `json:"data,omitempty"`
	Version int64       `json:"version"`
}

// SyncRequest is the lite client's delta-sync call.
type SyncRequest struct {
	UserID          string   `json:"user_id" binding:"required"`
	LastSyncVersion int64    `json:"last_sync_version"`
	Entities        []string `json:"entities,omitempty"`
	NetworkType     string   `json:"network_type"`
}

// SyncResponse is the delta-sync answer. When Compressed is set, Payload
// holds the compressed body and Changes is empty.
type SyncResponse struct {
	ServerVersion int64          `json:"server_version"`
	Changes       []EntityChange `json:"changes"`
	HasMore       bool           `json:"has_more"`
	SyncedAt      time.Time      `json:"synced_at"`
	Compressed    bool           `json:"compressed,omitempty"`
	Encoding      string         `json:"encoding,omitempty"`
	Payload       []byte         `json:"payload,omitempty"`
}
