package configcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/memgatehq/memgate/cmd/memgate/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "memgate-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .memgate dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".memgate"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "memmachine.base_url", "http://memmachine:8080"})
			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			// Verify the config file was created
			_, err = os.Stat(filepath.Join(tmpDir, ".memgate", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"set", "nope.nothing", "x"})
			Expect(cmd.Execute()).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("get subcommand", func() {
		It("reads back a value that was set", func() {
			set := configcmder.NewConfigCmd()
			set.SetArgs([]string{"set", "memory.history_count", "7"})
			Expect(set.Execute()).To(Succeed())

			get := configcmder.NewConfigCmd()
			get.SetArgs([]string{"get", "memory.history_count"})
			Expect(get.Execute()).To(Succeed())
		})

		It("rejects unknown keys", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"get", "nope.nothing"})
			Expect(cmd.Execute()).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("list subcommand", func() {
		It("lists all keys without error", func() {
			cmd := configcmder.NewConfigCmd()
			cmd.SetArgs([]string{"list"})
			Expect(cmd.Execute()).To(Succeed())
		})
	})
})
