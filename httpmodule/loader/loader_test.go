package loader_test

import (
	"net/http"
	"net/http/httptest"
	"os"

	"jsrtgo/httpmodule/loader"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Security", func() {
	AfterEach(func() {
		os.Unsetenv("JSRT_HTTP_MODULES_ALLOWED")
		os.Unsetenv("JSRT_HTTP_MODULES_HTTPS_ONLY")
	})

	It("rejects a domain not in the allowlist without any network access", func() {
		os.Setenv("JSRT_HTTP_MODULES_ALLOWED", "esm.sh")
		sec := loader.NewSecurity()
		_, err := sec.Validate("https://evil.test/m.js")
		Expect(err).To(HaveOccurred())
	})

	It("accepts an allowlisted https domain", func() {
		os.Setenv("JSRT_HTTP_MODULES_ALLOWED", "esm.sh")
		sec := loader.NewSecurity()
		u, err := sec.Validate("https://esm.sh/react@18")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Host).To(Equal("esm.sh"))
	})

	It("rejects http when https_only is set", func() {
		os.Setenv("JSRT_HTTP_MODULES_ALLOWED", "esm.sh")
		os.Setenv("JSRT_HTTP_MODULES_HTTPS_ONLY", "true")
		sec := loader.NewSecurity()
		_, err := sec.Validate("http://esm.sh/react@18")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ResolveRelative", func() {
	It("resolves a single-level ./ import", func() {
		out, err := loader.ResolveRelative("https://esm.sh/a/b/main.js", "./util.js")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("https://esm.sh/a/b/util.js"))
	})

	It("resolves multi-level ../ traversal up to the origin root", func() {
		out, err := loader.ResolveRelative("https://esm.sh/a/b/c/main.js", "../../util.js")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("https://esm.sh/a/util.js"))
	})

	It("rejects a specifier that climbs above the origin root", func() {
		_, err := loader.ResolveRelative("https://esm.sh/main.js", "../../escape.js")
		Expect(err).To(HaveOccurred())
	})

	It("passes an absolute specifier through unchanged", func() {
		out, err := loader.ResolveRelative("https://esm.sh/main.js", "https://unpkg.com/x.js")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("https://unpkg.com/x.js"))
	})
})

var _ = Describe("Loader", func() {
	It("fetches, validates content-type, and caches a module", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/javascript")
			w.Write([]byte("export const x = 1;"))
		}))
		defer srv.Close()

		os.Setenv("JSRT_HTTP_MODULES_ALLOWED", "127.0.0.1")
		os.Setenv("JSRT_HTTP_MODULES_HTTPS_ONLY", "false")
		defer os.Unsetenv("JSRT_HTTP_MODULES_ALLOWED")
		defer os.Unsetenv("JSRT_HTTP_MODULES_HTTPS_ONLY")

		l := loader.NewLoader()
		mod, err := l.LoadESM(srv.URL + "/mod.js")
		Expect(err).NotTo(HaveOccurred())
		Expect(mod.Source).To(Equal("export const x = 1;"))
		Expect(mod.ESM).To(BeTrue())
	})

	It("wraps a CommonJS require in the literal preamble", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("module.exports = 42;"))
		}))
		defer srv.Close()

		os.Setenv("JSRT_HTTP_MODULES_ALLOWED", "127.0.0.1")
		os.Setenv("JSRT_HTTP_MODULES_HTTPS_ONLY", "false")
		defer os.Unsetenv("JSRT_HTTP_MODULES_ALLOWED")
		defer os.Unsetenv("JSRT_HTTP_MODULES_HTTPS_ONLY")

		l := loader.NewLoader()
		mod, err := l.RequireCommonJS(srv.URL + "/mod.js")
		Expect(err).NotTo(HaveOccurred())
		Expect(mod.Source).To(ContainSubstring("const module = { exports: {} };"))
		Expect(mod.Source).To(ContainSubstring("module.exports = 42;"))
		Expect(mod.Source).To(ContainSubstring("export default module.exports;"))
	})
})
