// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build integration

package host_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/onsi/gomega/gexec"
)

func runHost(dir string, args ...string) *gexec.Session {
	cmd := exec.Command(filepath.Join(dir, "jamhost"), args...)
	session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
	Expect(err).NotTo(HaveOccurred())
	Eventually(session, 30*time.Second).Should(gexec.Exit())
	return session
}

var _ = Describe("jamhost with the echo plugin", func() {
	It("runs the control plugin and prints its response", func() {
		dir := installDir(map[string]string{"libecho.so": echoPlugin})

		session := runHost(dir)

		Expect(session.ExitCode()).To(Equal(0))
		Expect(string(session.Out.Contents())).To(Equal("Control plugin result: {}\n"))
	})

	It("skips files that are not loadable libraries", func() {
		dir := installDir(map[string]string{"libecho.so": echoPlugin})
		writeGarbage(dir, "libaaa.so")

		session := runHost(dir)

		Expect(session.ExitCode()).To(Equal(0))
		Expect(string(session.Err.Contents())).To(ContainSubstring("PROBE_LOAD_FAILED"))
	})

	It("finds the plugin through a symlinked executable", func() {
		dir := installDir(map[string]string{"libecho.so": echoPlugin})
		linkDir := GinkgoT().TempDir()
		link := filepath.Join(linkDir, "jamhost")
		Expect(os.Symlink(filepath.Join(dir, "jamhost"), link)).To(Succeed())

		cmd := exec.Command(link)
		session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
		Expect(err).NotTo(HaveOccurred())
		Eventually(session, 30*time.Second).Should(gexec.Exit(0))
	})

	It("describes the plugin in inspect output", func() {
		dir := installDir(map[string]string{"libecho.so": echoPlugin})

		session := runHost(dir, "inspect", "--json")
		Expect(session.ExitCode()).To(Equal(0))

		var reports []struct {
			Name    string `json:"name"`
			Control bool   `json:"control"`
			Plugin  struct {
				Product string `json:"product"`
				ID      uint64 `json:"plugin_id"`
			} `json:"plugin"`
		}
		Expect(json.Unmarshal(session.Out.Contents(), &reports)).To(Succeed())
		Expect(reports).To(HaveLen(1))
		Expect(reports[0].Control).To(BeTrue())
		Expect(reports[0].Plugin.Product).To(Equal("echo"))
		Expect(reports[0].Plugin.ID).To(Equal(uint64(0xEC40)))
	})
})

var _ = Describe("jamhost without a control plugin", func() {
	It("exits with status 3 when the directory holds no libraries", func() {
		dir := installDir(nil)

		session := runHost(dir)

		Expect(session.ExitCode()).To(Equal(3))
		Expect(session.Out.Contents()).To(BeEmpty())
	})

	It("exits with status 3 when every candidate is rejected", func() {
		dir := installDir(nil)
		writeGarbage(dir, "libbroken.so")

		session := runHost(dir)

		Expect(session.ExitCode()).To(Equal(3))
	})
})
