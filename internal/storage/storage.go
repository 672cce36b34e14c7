package storage

import "github.com/Veraticus/sakhi/internal/service"

var _ service.Storage = (*SQLiteStorage)(nil)
