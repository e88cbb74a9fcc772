package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/deskline/helpdesk-service/internal/config"
)

var _ = Describe("FromViper", func() {
	var v *viper.Viper

	BeforeEach(func() {
		v = viper.New()
		v.Set("APP_HOST", "127.0.0.1")
		v.Set("APP_PORT", "5000")
		v.Set("APP_PATH_PREFIX", "api/")
		v.Set("AUTH_JWT_SECRET", "dev-secret")
		v.Set("AUTH_ACCESS_TOKEN_TTL_MINUTES", 2880)
		v.Set("NOTIFY_ENABLED", true)
		v.Set("NOTIFY_QUEUE_SIZE", 64)
	})

	It("maps keys onto the config tree", func() {
		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.App.Addr()).To(Equal("127.0.0.1:5000"))
		Expect(cfg.App.PathPrefix).To(Equal("/api"))
		Expect(cfg.Auth.AccessTokenTTLMinutes).To(Equal(2880))
		Expect(cfg.Notification.QueueSize).To(Equal(64))
	})

	It("treats a root prefix as none", func() {
		v.Set("APP_PATH_PREFIX", "/")
		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.App.PathPrefix).To(BeEmpty())
	})

	It("refuses the development secret in production", func() {
		v.Set("APP_ENV", "production")
		_, err := config.FromViper(v)
		Expect(err).To(MatchError(ContainSubstring("AUTH_JWT_SECRET")))
	})

	It("only reports SMTP as configured when a host is set", func() {
		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Notification.SMTPConfigured()).To(BeFalse())

		v.Set("NOTIFY_SMTP_HOST", "smtp.corp.test")
		cfg, err = config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Notification.SMTPConfigured()).To(BeTrue())
	})

	It("falls back to sane timeouts", func() {
		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.App.RequestTimeout()).To(BeZero())
		Expect(cfg.App.ShutdownTimeout()).To(Equal(15 * time.Second))
	})
})
