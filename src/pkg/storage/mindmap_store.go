package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// MindmapStorage implements the MindmapStore interface on a SQL database.
type MindmapStorage struct {
	db     Database
	logger *log.Logger
}

// NewMindmapStorage creates a new MindmapStorage instance.
func NewMindmapStorage(db Database, logger *log.Logger) *MindmapStorage {
	return &MindmapStorage{db: db, logger: logger}
}

func encodeGraph(m *model.Mindmap) (string, string, error) {
	nodes := m.Nodes
	if nodes == nil {
		nodes = []model.Node{}
	}
	conns := m.Connections
	if conns == nil {
		conns = []model.Connection{}
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode nodes: %w", err)
	}
	connsJSON, err := json.Marshal(conns)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode connections: %w", err)
	}
	return string(nodesJSON), string(connsJSON), nil
}

// MindmapAdd inserts a new document. The caller assigns the ID.
func (s *MindmapStorage) MindmapAdd(ctx context.Context, mindmap *model.Mindmap) error {
	s.logger.Info(ctx, "Adding new mindmap", log.Fields{"owner": mindmap.Owner, "id": mindmap.ID})

	nodes, conns, err := encodeGraph(mindmap)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	mindmap.Created, mindmap.Updated = now, now

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO mindmaps (id, owner, title, nodes, connections, translate_x, translate_y, created, updated)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			mindmap.ID, mindmap.Owner, mindmap.Title, nodes, conns,
			mindmap.ViewState.TranslateX, mindmap.ViewState.TranslateY, now, now,
		)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to add mindmap", log.Fields{"error": err, "owner": mindmap.Owner})
		return fmt.Errorf("failed to add mindmap: %w", err)
	}

	return nil
}

// MindmapGet retrieves mind maps based on the provided info and filter.
func (s *MindmapStorage) MindmapGet(ctx context.Context, mindmapInfo model.MindmapInfo, mindmapFilter model.MindmapFilter) ([]*model.Mindmap, error) {
	query := `SELECT id, owner, title, nodes, connections, translate_x, translate_y, created, updated
		FROM mindmaps WHERE 1=1`
	var args []interface{}

	if mindmapFilter.ID {
		query += " AND id = ?"
		args = append(args, mindmapInfo.ID)
	}
	if mindmapFilter.Owner {
		query += " AND owner = ?"
		args = append(args, mindmapInfo.Owner)
	}
	if mindmapFilter.Title {
		query += " AND title = ?"
		args = append(args, mindmapInfo.Title)
	}
	query += " ORDER BY updated DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error(ctx, "Failed to query mindmaps", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to query mindmaps: %w", err)
	}
	defer rows.Close()

	var mindmaps []*model.Mindmap
	for rows.Next() {
		var (
			m            model.Mindmap
			nodes, conns string
		)
		err := rows.Scan(&m.ID, &m.Owner, &m.Title, &nodes, &conns,
			&m.ViewState.TranslateX, &m.ViewState.TranslateY, &m.Created, &m.Updated)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mindmap row: %w", err)
		}
		if err := json.Unmarshal([]byte(nodes), &m.Nodes); err != nil {
			return nil, fmt.Errorf("failed to decode nodes of mindmap %s: %w", m.ID, err)
		}
		if err := json.Unmarshal([]byte(conns), &m.Connections); err != nil {
			return nil, fmt.Errorf("failed to decode connections of mindmap %s: %w", m.ID, err)
		}
		mindmaps = append(mindmaps, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mindmap rows: %w", err)
	}

	// Stored timestamps share one layout, but keep ordering independent of it
	sortByUpdated(mindmaps)
	return mindmaps, nil
}

// MindmapUpdate replaces the stored document with mindmap.
func (s *MindmapStorage) MindmapUpdate(ctx context.Context, mindmap *model.Mindmap) error {
	nodes, conns, err := encodeGraph(mindmap)
	if err != nil {
		return err
	}
	mindmap.Updated = time.Now().UTC()

	result, err := s.db.Exec(ctx,
		`UPDATE mindmaps SET title = ?, nodes = ?, connections = ?, translate_x = ?, translate_y = ?, updated = ?
		 WHERE id = ?`,
		mindmap.Title, nodes, conns, mindmap.ViewState.TranslateX, mindmap.ViewState.TranslateY,
		mindmap.Updated, mindmap.ID,
	)
	if err != nil {
		s.logger.Error(ctx, "Error updating mindmap", log.Fields{"error": err, "id": mindmap.ID})
		return fmt.Errorf("failed to update mindmap: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("mindmap %s: %w", mindmap.ID, ErrNotFound)
	}
	return nil
}

// MindmapDelete removes a mind map from the database.
func (s *MindmapStorage) MindmapDelete(ctx context.Context, mindmapID string) error {
	result, err := s.db.Exec(ctx, "DELETE FROM mindmaps WHERE id = ?", mindmapID)
	if err != nil {
		s.logger.Error(ctx, "Failed to delete mindmap", log.Fields{"id": mindmapID, "error": err})
		return fmt.Errorf("failed to delete mindmap: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("mindmap %s: %w", mindmapID, ErrNotFound)
	}
	return nil
}
