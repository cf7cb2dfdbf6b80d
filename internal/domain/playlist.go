package domain

import "slices"

// Playlist is an ordered sequence of tracks owned by a user.
// Duplicate track ids are forbidden; the owner has implicit full rights
// regardless of the ACL contents.
type Playlist struct {
	Audit
	Name      string        `json:"name"`
	OwnerID   string        `json:"owner_id"`
	TrackIDs  []string      `json:"track_ids"`
	IsPublic  bool          `json:"is_public"`
	AccessCtl AccessControl `json:"access_control,omitempty"`
}

// HasTrack reports whether the playlist already contains the track.
func (p *Playlist) HasTrack(trackID string) bool {
	return slices.Contains(p.TrackIDs, trackID)
}

// AddTrack appends the track, preserving order. Returns false if the
// track is already present (duplicates are forbidden).
func (p *Playlist) AddTrack(trackID string) bool {
	if p.HasTrack(trackID) {
		return false
	}
	p.TrackIDs = append(p.TrackIDs, trackID)
	return true
}

// RemoveTrack removes the track, preserving the order of the rest.
// Returns false if the track was not present.
func (p *Playlist) RemoveTrack(trackID string) bool {
	i := slices.Index(p.TrackIDs, trackID)
	if i < 0 {
		return false
	}
	p.TrackIDs = slices.Delete(p.TrackIDs, i, i+1)
	return true
}

// Owner returns the playlist owner's user id.
func (p *Playlist) Owner() string { return p.OwnerID }

// Public reports whether the playlist is world-readable.
func (p *Playlist) Public() bool { return p.IsPublic }

// ACL returns the playlist's access-control list.
func (p *Playlist) ACL() AccessControl { return p.AccessCtl }
