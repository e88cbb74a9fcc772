package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/internal/domain"
)

var _ = Describe("TokenManager", func() {
	var (
		tm   *TokenManager
		user *domain.User
		now  time.Time
	)

	BeforeEach(func() {
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		tm = NewTokenManager("unit-secret", 2880)
		tm.now = func() time.Time { return now }
		user = &domain.User{ID: 7, Username: "alice", DisplayName: "Alice", Role: domain.RoleAdmin}
	})

	It("round-trips the session claims", func() {
		token, exp, err := tm.GenerateToken(user)
		Expect(err).NotTo(HaveOccurred())
		Expect(exp).To(Equal(now.Add(48 * time.Hour)))

		session, err := tm.ParseToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(session.UserID).To(Equal(int64(7)))
		Expect(session.Username).To(Equal("alice"))
		Expect(session.Role).To(Equal(domain.RoleAdmin))
		Expect(session.DisplayName).To(Equal("Alice"))
	})

	It("rejects expired tokens", func() {
		token, _, err := tm.GenerateToken(user)
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(49 * time.Hour)
		_, err = tm.ParseToken(token)
		Expect(err).To(HaveOccurred())
	})

	It("rejects tokens signed with another secret", func() {
		other := NewTokenManager("other-secret", 60)
		token, _, err := other.GenerateToken(user)
		Expect(err).NotTo(HaveOccurred())

		_, err = tm.ParseToken(token)
		Expect(err).To(HaveOccurred())
	})

	It("rejects tokens without an expiry", func() {
		claims := &Claims{UserID: 7, Username: "alice", Role: domain.RoleAdmin}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-secret"))
		Expect(err).NotTo(HaveOccurred())

		_, err = tm.ParseToken(token)
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown roles", func() {
		claims := &Claims{
			UserID: 7, Username: "alice", Role: "ROOT",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-secret"))
		Expect(err).NotTo(HaveOccurred())

		_, err = tm.ParseToken(token)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("passwords", func() {
	It("verifies the original password only", func() {
		hash, err := HashPassword("correct horse", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).NotTo(ContainSubstring("correct horse"))

		Expect(ComparePassword(hash, "correct horse")).To(Succeed())
		Expect(ComparePassword(hash, "battery staple")).To(MatchError(ErrPasswordMismatch))
	})

	It("never matches a value that is not a hash", func() {
		Expect(ComparePassword("plain", "plain")).To(MatchError(ErrPasswordMismatch))
	})
})
