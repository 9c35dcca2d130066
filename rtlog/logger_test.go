package rtlog_test

import (
	"bytes"
	"strings"

	"jsrtgo/rtlog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Logger", func() {
	var buf *bytes.Buffer
	var log rtlog.Logger

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = rtlog.New()
		log.SetOutput(buf)
	})

	It("writes messages at info level by default", func() {
		log.Info("hello", rtlog.Fields{"k": "v"})
		Expect(buf.String()).To(ContainSubstring("hello"))
		Expect(buf.String()).To(ContainSubstring("k=v"))
	})

	It("suppresses debug entries until the level is lowered", func() {
		log.Debug("invisible")
		Expect(buf.String()).To(BeEmpty())

		log.SetLevel(rtlog.DebugLevel)
		log.Debug("visible")
		Expect(buf.String()).To(ContainSubstring("visible"))
	})

	It("With merges base fields into every subsequent entry", func() {
		child := log.With(rtlog.Fields{"component": "netx"})
		child.Info("connected")
		Expect(strings.Contains(buf.String(), "component=netx")).To(BeTrue())
	})
})
