// Package sipmock contains generated mocks of the sip transport contracts.
package sipmock

//go:generate go tool mockgen -destination=mocks.go -package=sipmock github.com/ghettovoice/sipcore/sip PacketConn,StreamListener,StreamConn,Processor
