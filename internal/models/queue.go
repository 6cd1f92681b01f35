package models

// QueueItem is one user-selected file waiting for or undergoing conversion.
// DisplayHandle is owned by the item and revoked when it leaves the queue.
type QueueItem struct {
	ID            string `json:"id"`
	File          *File  `json:"-"`
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	DisplayHandle string `json:"display_handle"`
}
