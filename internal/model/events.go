package model

// ChangeKind identifies the type of store mutation
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeModify ChangeKind = "modify"
	ChangeRemove ChangeKind = "remove"
)

// ChangeEvent is one entry in the store's change log. The notifier consumes
// these to learn that the authoritative state moved; the participant carried
// here is the post-image (pre-image for removes).
type ChangeEvent struct {
	Kind        ChangeKind
	Participant Participant
}
