package gateway

import (
	"context"
	"net/http"
	"net/url"

	"mindnoscape/web-app/src/pkg/model"
)

// documentBody is what the server accepts on create and update.
type documentBody struct {
	Title       string             `json:"title"`
	Nodes       []model.Node       `json:"nodes"`
	Connections []model.Connection `json:"connections"`
	ViewState   model.ViewState    `json:"viewState"`
}

// Save stores doc. A document with an ID updates that map; otherwise a new
// one is created. The server's copy, carrying its ID and timestamps, is
// returned.
func (c *Client) Save(ctx context.Context, cred *Credential, doc model.Mindmap) (model.Mindmap, error) {
	if cred == nil {
		return model.Mindmap{}, ErrNoCredential
	}
	body := documentBody{
		Title:       doc.Title,
		Nodes:       doc.Nodes,
		Connections: doc.Connections,
		ViewState:   doc.ViewState,
	}
	if body.Nodes == nil {
		body.Nodes = []model.Node{}
	}
	if body.Connections == nil {
		body.Connections = []model.Connection{}
	}

	method, path := http.MethodPost, "/mindmaps"
	if doc.ID != "" {
		method, path = http.MethodPut, "/mindmaps/"+url.PathEscape(doc.ID)
	}

	var saved model.Mindmap
	if err := c.do(ctx, method, path, cred, body, &saved); err != nil {
		return model.Mindmap{}, err
	}
	return saved, nil
}

// Load fetches one map. An empty id asks for the user's most recently
// updated map.
func (c *Client) Load(ctx context.Context, cred *Credential, id string) (model.Mindmap, error) {
	if cred == nil {
		return model.Mindmap{}, ErrNoCredential
	}
	path := "/mindmaps?latest=true"
	if id != "" {
		path = "/mindmaps/" + url.PathEscape(id)
	}

	var doc model.Mindmap
	if err := c.do(ctx, http.MethodGet, path, cred, nil, &doc); err != nil {
		return model.Mindmap{}, err
	}
	return doc, nil
}

// List returns the user's maps, most recently updated first.
func (c *Client) List(ctx context.Context, cred *Credential) ([]model.MindmapSummary, error) {
	if cred == nil {
		return nil, ErrNoCredential
	}
	var list []model.MindmapSummary
	if err := c.do(ctx, http.MethodGet, "/mindmaps", cred, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes a map.
func (c *Client) Delete(ctx context.Context, cred *Credential, id string) error {
	if cred == nil {
		return ErrNoCredential
	}
	return c.do(ctx, http.MethodDelete, "/mindmaps/"+url.PathEscape(id), cred, nil, nil)
}
