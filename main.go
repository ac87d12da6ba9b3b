// pro-apt-hook - Ubuntu Pro advisories for apt
//
// The hook finds installed packages whose pending update is only available
// through an Ubuntu Pro channel (esm-infra, esm-apps) and tells the user:
//
//	apt JSON hook (AptCli::Hooks::Upgrade)    -> counts and advisories during apt
//	pre-invoke / post-invoke-* (APT::Update)  -> mailbox files for motd and apt
//
// Usage in /etc/apt/apt.conf.d/20apt-esm-hook.conf:
//
//	APT::Update::Pre-Invoke { "pro-apt-hook pre-invoke || true"; };
//	APT::Update::Post-Invoke-Stats { "pro-apt-hook post-invoke-stats || true"; };
//	AptCli::Hooks::Upgrade { "pro-apt-hook || true"; };
//
// Test:
//
//	pro-apt-hook pre-invoke test
package main

import (
	"os"

	"github.com/canonical/ubuntu-pro-client/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
