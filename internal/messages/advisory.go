package messages

import (
	"strings"

	"github.com/canonical/ubuntu-pro-client/internal/classify"
	"github.com/canonical/ubuntu-pro-client/internal/system"
)

const wrapWidth = 79

// PromoLine is printed after an install when the promotion flag is set.
const PromoLine = "Enable Ubuntu Pro to receive additional future security updates. See https://ubuntu.com/pro or run: sudo pro status"

// PackageLines wraps names into lines indented by two spaces and kept
// under 79 columns.
func PackageLines(names []string) string {
	var b strings.Builder
	line := " "
	for _, name := range names {
		if len(line)+1+len(name) >= wrapWidth {
			b.WriteString(line + "\n")
			line = " "
		}
		line += " " + name
	}
	if len(line) > 1 {
		b.WriteString(line + "\n")
	}
	return b.String()
}

// LearnMore returns the link line matching the release and cloud.
func LearnMore(ctx system.Context) string {
	azure := ctx.Cloud == system.CloudAzure
	switch ctx.Series {
	case "xenial":
		if azure {
			return "Learn more about Ubuntu Pro for 16.04 on Azure at https://ubuntu.com/16-04/azure"
		}
		return "Learn more about Ubuntu Pro for 16.04 at https://ubuntu.com/16-04"
	case "bionic":
		if azure {
			return "Learn more about Ubuntu Pro for 18.04 on Azure at https://ubuntu.com/18-04/azure"
		}
		return "Learn more about Ubuntu Pro for 18.04 at https://ubuntu.com/18-04"
	}

	switch ctx.Cloud {
	case system.CloudAzure:
		return "Learn more about Ubuntu Pro on Azure at https://ubuntu.com/azure/pro"
	case system.CloudAWS:
		return "Learn more about Ubuntu Pro on AWS at https://ubuntu.com/aws/pro"
	case system.CloudGCE:
		return "Learn more about Ubuntu Pro on GCP at https://ubuntu.com/gcp/pro"
	}
	return "Learn more about Ubuntu Pro at https://ubuntu.com/pro"
}

// Advisory is the pre-prompt text for packages whose update needs the
// given entitlement tier. Only TagESMInfra and TagESMApps produce text.
func Advisory(tier classify.Tag, names []string, ctx system.Context) string {
	if len(names) == 0 {
		return ""
	}

	var header string
	switch tier {
	case classify.TagESMInfra:
		header = "The following security updates require Ubuntu Pro with 'esm-infra' enabled:"
		if len(names) == 1 {
			header = "The following security update requires Ubuntu Pro with 'esm-infra' enabled:"
		}
	case classify.TagESMApps:
		header = "Get more security updates through Ubuntu Pro with 'esm-apps' enabled:"
		if len(names) == 1 {
			header = "Get another security update through Ubuntu Pro with 'esm-apps' enabled:"
		}
	default:
		return ""
	}

	return header + "\n" + PackageLines(names) + LearnMore(ctx) + "\n"
}

// ExpiredNotice lists the packages that cannot be fetched once the Pro
// subscription has expired.
func ExpiredNotice(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "The following packages will fail to download because your Ubuntu Pro subscription has expired\n" +
		PackageLines(names) +
		"Renew your subscription or `sudo pro detach` to remove these errors\n"
}
