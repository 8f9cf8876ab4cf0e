package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"retailforecast/config"
	"retailforecast/database"
	"retailforecast/models"
	"retailforecast/utils"
)

var (
	errUserNotFound = errors.New("user not found")
	validate        = validator.New()

	// findUser loads a user and its password hash by email and role.
	findUser = findUserInDB
)

func findUserInDB(ctx context.Context, email, role string) (models.User, string, error) {
	var user models.User
	var passwordHash string
	var assignedShopID, merchantID sql.NullString

	query := `
		SELECT id, name, email, password_hash, role, is_active, assigned_shop_id, merchant_id, created_at, updated_at
		FROM users
		WHERE email = $1 AND role = $2`

	err := database.GetDB().QueryRow(ctx, query, email, role).Scan(
		&user.ID, &user.Name, &user.Email, &passwordHash, &user.Role, &user.IsActive,
		&assignedShopID, &merchantID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, "", errUserNotFound
	}
	if err != nil {
		return models.User{}, "", err
	}
	user.AssignedShopID = utils.NullStringToStringPtr(assignedShopID)
	user.MerchantID = utils.NullStringToStringPtr(merchantID)
	return user, passwordHash, nil
}

// HandleLogin authenticates a user and returns a JWT token.
// POST /api/v1/auth/login
func HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Missing required fields (email, password, userType)"})
	}
	role, ok := utils.ValidateAndNormalizeRole(req.UserType)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid user type"})
	}

	user, passwordHash, err := findUser(c.UserContext(), req.Email, role)
	if errors.Is(err, errUserNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid credentials or user role"})
	}
	if err != nil {
		log.Printf("Database error during login for email %s: %v", req.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "User account is inactive"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid credentials"})
	}

	token, err := createJWT(user)
	if err != nil {
		log.Printf("Error creating JWT for user %s: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Could not sign token"})
	}

	log.Printf("🔑 [AUTH] %s %s logged in (merchant %s)", user.Role, user.ID, utils.PointerToString(user.MerchantID))
	return c.JSON(fiber.Map{"success": true, "data": models.LoginResponse{AccessToken: token, User: user}})
}

func createJWT(user models.User) (string, error) {
	claims := models.JwtClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if user.MerchantID != nil {
		claims.MerchantID = *user.MerchantID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}
