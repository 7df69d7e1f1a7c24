//go:build system

package station_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStationSystem(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Station System Suite")
}
