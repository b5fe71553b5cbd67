// Package mqtt resolves the vehicle identity from retained broker messages
// using the Eclipse Paho client. A Fetcher opens exactly one clean session,
// subscribes to the VIN and vehicle-ID topics at QoS 0 and waits a bounded
// time for the vehicle ID to arrive.
package mqtt
