// Package platform provides cross-platform filesystem operations used while
// provisioning: permission management, directory state checks and recursive
// removal that copes with the read-only object files git leaves on Windows.
package platform
