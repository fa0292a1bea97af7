package model

// Mapping binds a registry entry to one concrete destination: the channel or
// page to publish to and the credential to use for it. For YouTube MCN the
// target id is a channel id, for YouTube Direct a refresh token, for
// Facebook a page access token. Mappings are maintained out of band and are
// read-only for the connector.
type Mapping struct {
	MappingID      string
	TargetID       string
	TargetPlatform Platform
	CategoryID     string
}
