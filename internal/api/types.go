package api

// Model is an entry of the models list.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the response of GET /models.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// IDs returns the model IDs in list order.
func (l ModelList) IDs() []string {
	ids := make([]string, 0, len(l.Data))
	for _, m := range l.Data {
		ids = append(ids, m.ID)
	}
	return ids
}

// File is an uploaded file.
type File struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	Status    string `json:"status,omitempty"`
}

// FileList is the response of GET /files.
type FileList struct {
	Object string `json:"object"`
	Data   []File `json:"data"`
}

// DeleteResult is returned by DELETE endpoints.
type DeleteResult struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// FineTune is a fine-tuning job.
type FineTune struct {
	ID             string  `json:"id"`
	Object         string  `json:"object"`
	Model          string  `json:"model"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
	FineTunedModel *string `json:"fine_tuned_model"`
	Status         string  `json:"status"`
	TrainingFiles  []File  `json:"training_files,omitempty"`
}

// FineTuneList is the response of GET /fine-tunes.
type FineTuneList struct {
	Object string     `json:"object"`
	Data   []FineTune `json:"data"`
}

// FineTuneEvent is a progress event of a fine-tuning job.
type FineTuneEvent struct {
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// FineTuneEventList is the response of GET /fine-tunes/{id}/events.
type FineTuneEventList struct {
	Object string          `json:"object"`
	Data   []FineTuneEvent `json:"data"`
}
