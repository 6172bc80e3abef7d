package confluence

// Page is a Confluence content item with the fields the sync cares about.
// Version carries the optimistic-concurrency counter: every update must
// submit the current number plus one.
type Page struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Version Version `json:"version"`
	Space   Space   `json:"space"`
}

// Version is the page version envelope
type Version struct {
	Number int `json:"number"`
}

// Space identifies the space a page belongs to
type Space struct {
	Key string `json:"key"`
}

// searchResponse is the envelope of the content search endpoints
type searchResponse struct {
	Results []Page `json:"results"`
}

// errorResponse is the body Confluence returns on failures
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Reason     string `json:"reason"`
}

// spaceRef references a space in create requests
type spaceRef struct {
	Key string `json:"key"`
}

// ancestorRef references a parent page in create requests
type ancestorRef struct {
	ID string `json:"id"`
}

// storageBody is the storage-format body envelope
type storageBody struct {
	Storage storageValue `json:"storage"`
}

type storageValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// createRequest is the POST body for page creation
type createRequest struct {
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Space     spaceRef      `json:"space"`
	Body      storageBody   `json:"body"`
	Ancestors []ancestorRef `json:"ancestors,omitempty"`
}

// updateRequest is the PUT body for page updates
type updateRequest struct {
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	Version Version     `json:"version"`
	Body    storageBody `json:"body"`
}

func storageOf(content string) storageBody {
	return storageBody{Storage: storageValue{Value: content, Representation: "storage"}}
}
