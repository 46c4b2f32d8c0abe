// Package marker implements the clean-suspend marker protocol: the one
// bit-exact persisted format in the suspend/resume core.
//
// The marker is a fixed 4096-byte page in retained memory, 8 sectors of
// 128 little-endian 32-bit words. The suspend path populates it immediately
// before power removal; the bootloader verifies and erases it on the next
// boot to decide between resuming the suspended session and cold-booting.
// An all-zero page means no resume is pending.
//
// Each sector's final word is the seeded 32-bit hash of its preceding 127
// words. The filler words are not random bytes but one of four maximally
// distinct patterns selected by two-bit slices of per-sector entropy, so a
// single corrupted bit in retained RAM very likely lands the word outside
// every valid pattern. Sector 0's first four words carry metadata instead of
// filler: the forced-suspend flag, the two build-seed words of the firmware
// that wrote the marker, and the id of the process to resume.
//
// Verification intentionally checks "written by this firmware build", not
// mere self-consistency: the stored build-seed words are replaced by the
// live ones read from hardware before sector 0's hash is recomputed, so a
// marker left behind by different firmware fails the check even when it is
// internally well-formed.
package marker
