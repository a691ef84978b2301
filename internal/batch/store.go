package batch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dotcommander/scenesmith/internal/scene"
	"github.com/dotcommander/scenesmith/internal/storage"
)

// SceneStore persists the batch's output collection as one JSON array,
// overwritten in full on every flush. The store after a crash therefore
// always reflects exactly the set of fully-completed documents.
type SceneStore struct {
	storage storage.Storage
	path    string
}

func NewSceneStore(st storage.Storage, path string) *SceneStore {
	return &SceneStore{storage: st, path: path}
}

// Flush writes the complete collection snapshot.
func (s *SceneStore) Flush(ctx context.Context, scenes []scene.Scene) error {
	if scenes == nil {
		scenes = []scene.Scene{}
	}

	data, err := json.MarshalIndent(scenes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling scene collection: %w", err)
	}

	if err := s.storage.Save(ctx, s.path, data); err != nil {
		return fmt.Errorf("persisting scene collection: %w", err)
	}

	return nil
}

// Load reads the persisted collection back, returning an empty slice
// when nothing has been flushed yet.
func (s *SceneStore) Load(ctx context.Context) ([]scene.Scene, error) {
	if !s.storage.Exists(ctx, s.path) {
		return nil, nil
	}

	data, err := s.storage.Load(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("loading scene collection: %w", err)
	}

	var scenes []scene.Scene
	if err := json.Unmarshal(data, &scenes); err != nil {
		return nil, fmt.Errorf("parsing scene collection: %w", err)
	}

	return scenes, nil
}
