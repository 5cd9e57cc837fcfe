package markers

import "time"

// Marker is a user-owned geolocated place record. Field names on the wire
// and in the document store are fixed by the existing collection layout.
type Marker struct {
	ID         string  `bson:"_id,omitempty" json:"id"`
	Label      string  `bson:"lugar" json:"lugar"`
	Latitude   float64 `bson:"lat" json:"lat"`
	Longitude  float64 `bson:"lon" json:"lon"`
	OwnerEmail string  `bson:"email" json:"email"`
	ImageURL   string  `bson:"imagen,omitempty" json:"imagen,omitempty"`
}

// VisitEntry records one identity viewing another's marker collection.
// The viewer's credential is never persisted here.
type VisitEntry struct {
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	VisitedEmail string    `bson:"visited_user_email" json:"visited_user_email"`
	VisitorEmail string    `bson:"visitor_email" json:"visitor_email"`
}

// LoginLogEntry is the audit record appended once per successful login.
type LoginLogEntry struct {
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Email     string    `bson:"usuario" json:"usuario"`
	ExpiresAt time.Time `bson:"caducidad" json:"caducidad"`
	Token     string    `bson:"token" json:"-"`
}
