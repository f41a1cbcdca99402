package processor

import "github.com/catdevman/image-tagger/internal/domain"

// ItemStatus is the result of processing one queued message.
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "success"
	ItemMalformed ItemStatus = "malformed"
	ItemFailed    ItemStatus = "failed"
)

// Stage names the step an item was in when it stopped.
type Stage string

const (
	StageDecode Stage = "decode"
	StageDetect Stage = "detect"
	StageStore  Stage = "store"
	StageNotify Stage = "notify"
	StageDone   Stage = "done"
)

type ItemResult struct {
	MessageID    string
	ReceiveCount int
	Ref          domain.ObjectRef
	Labels       []string
	Status       ItemStatus
	Stage        Stage
	Err          error
}

// BatchReport collects the per-item results of one invocation in arrival order.
type BatchReport struct {
	Items []ItemResult
}

func (r BatchReport) count(s ItemStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == s {
			n++
		}
	}
	return n
}

func (r BatchReport) Succeeded() int { return r.count(ItemSucceeded) }
func (r BatchReport) Failed() int    { return r.count(ItemFailed) }
func (r BatchReport) Malformed() int { return r.count(ItemMalformed) }
