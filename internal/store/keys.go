package store

import "fmt"

// Key layout. Primary records live under a kind prefix; uniqueness
// constraints and reverse lookups live under idx: prefixes whose entries
// are written in the same transaction as the record they index.
//
// Generated ids and canonical tag names never contain colons, so the
// trailing segment of every index key parses unambiguously.
const (
	userPrefix       = "user:"               // user:{id} → User JSON
	userByNamePrefix = "idx:users:username:" // idx:users:username:{username} → userID (unique)

	playlistPrefix        = "playlist:"           // playlist:{id} → Playlist JSON
	playlistByOwnerPrefix = "idx:playlists:owner:" // idx:playlists:owner:{ownerID}:{playlistID} → empty

	tagPrefix        = "tag:"           // tag:{id} → Tag JSON
	tagByPairPrefix  = "idx:tags:pair:" // idx:tags:pair:{trackID}:{tagName} → tagID (unique over live tags)
	tagByTrackPrefix = "idx:tags:track:" // idx:tags:track:{trackID}:{tagID} → empty

	sessionPrefix = "session:" // session:{tokenHash} → Session JSON, TTL-bounded

	votePrefix       = "vote:"            // vote:{id} → Vote JSON
	voteByKeyPrefix  = "idx:votes:key:"   // idx:votes:key:{castBy}:{trackID}:{tagName} → voteID (unique)
	voteByTrackPrefix = "idx:votes:track:" // idx:votes:track:{trackID}:{voteID} → empty
	voteByTagPrefix  = "idx:votes:tag:"   // idx:votes:tag:{tagName}:{voteID} → empty
)

func userKey(id string) []byte         { return []byte(userPrefix + id) }
func userByNameKey(name string) []byte { return []byte(userByNamePrefix + name) }

func playlistKey(id string) []byte { return []byte(playlistPrefix + id) }
func playlistByOwnerKey(ownerID, playlistID string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", playlistByOwnerPrefix, ownerID, playlistID)
}
func playlistByOwnerScanPrefix(ownerID string) []byte {
	return fmt.Appendf(nil, "%s%s:", playlistByOwnerPrefix, ownerID)
}

func sessionKey(tokenHash string) []byte { return []byte(sessionPrefix + tokenHash) }

func tagKey(id string) []byte { return []byte(tagPrefix + id) }
func tagByPairKey(trackID, tagName string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", tagByPairPrefix, trackID, tagName)
}
func tagByTrackKey(trackID, tagID string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", tagByTrackPrefix, trackID, tagID)
}
func tagByTrackScanPrefix(trackID string) []byte {
	return fmt.Appendf(nil, "%s%s:", tagByTrackPrefix, trackID)
}

func voteKey(id string) []byte { return []byte(votePrefix + id) }
func voteByUniqueKey(castBy, trackID, tagName string) []byte {
	return fmt.Appendf(nil, "%s%s:%s:%s", voteByKeyPrefix, castBy, trackID, tagName)
}
func voteByTrackKey(trackID, voteID string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", voteByTrackPrefix, trackID, voteID)
}
func voteByTrackScanPrefix(trackID string) []byte {
	return fmt.Appendf(nil, "%s%s:", voteByTrackPrefix, trackID)
}
func voteByTagKey(tagName, voteID string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", voteByTagPrefix, tagName, voteID)
}
func voteByTagScanPrefix(tagName string) []byte {
	return fmt.Appendf(nil, "%s%s:", voteByTagPrefix, tagName)
}
