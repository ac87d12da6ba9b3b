// Package constants defines shared constants used across the pro-apt-hook codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// Environment variables
const (
	EnvHookSocket = "APT_HOOK_SOCKET"
	EnvConfigFile = "PRO_APT_HOOK_CONFIG"
)

// Application paths
const (
	AppName           = "pro-apt-hook"
	DefaultConfigPath = "/etc/ubuntu-advantage/apt-hook.toml"
)

// JSON hook protocol
const (
	JSONRPCVersion  = "2.0"
	ProtocolVersion = "0.2"
)

// Repository origins as published in Release files.
const (
	OriginUbuntu   = "Ubuntu"
	OriginESMInfra = "UbuntuESM"
	OriginESMApps  = "UbuntuESMApps"
)

// PinNever is the priority apt reports for a "Pin-Priority: never" source.
const PinNever = -32768

// ContractExpiredNotice is the notice file written while the Ubuntu Pro
// contract is expired.
const ContractExpiredNotice = "5-contract_expired"
