package models

// InitiateUploadRequest is the body of the initiate-upload call.
type InitiateUploadRequest struct {
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// Destination is a signed, time-limited upload target issued by the backend.
// Method is POST (multipart form with Fields) when empty.
type Destination struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
	Method string            `json:"method,omitempty"`
}

// FileKey is the storage key reported back through upload-ended.
func (d *Destination) FileKey() string {
	return d.Fields["key"]
}

// UploadEndedRequest is the body of the upload-ended call.
type UploadEndedRequest struct {
	FileKey string `json:"file_key"`
}

// TokenPair is the access/refresh pair issued by the account API.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
