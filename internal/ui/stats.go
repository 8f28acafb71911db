package ui

import "sync/atomic"

type Stats struct {
	NovelsListed    atomic.Int64
	NovelsDetailed  atomic.Int64
	ChaptersNew     atomic.Int64
	ChaptersFetched atomic.Int64
	ChaptersFailed  atomic.Int64
	TextBytes       atomic.Int64
}
