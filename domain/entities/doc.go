// Package entities provides the records exchanged across the guest/host
// boundary and the configuration consumed by the reference host.
// Every record is encoded with the boundary codec, so field tags use the
// `json` key which the codec honors as the wire name.
package entities
