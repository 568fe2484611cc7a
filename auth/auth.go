// Package auth handles the single back-office credential: admin login
// issuing a JWT, plus first-boot seeding of the default admin account.
package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"sherpa/db"
	"sherpa/globals"
	"sherpa/middleware"
	"sherpa/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks admin credentials and issues a bearer token with the admin
// role.
func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in loginPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Username == "" || in.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	var admin struct {
		ID           string `bson:"adminid"`
		Username     string `bson:"username"`
		PasswordHash string `bson:"passwordHash"`
	}
	err := db.AdminsCollection.FindOne(r.Context(), bson.M{"username": in.Username}).Decode(&admin)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.Password)) != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	claims := &middleware.Claims{
		Username: admin.Username,
		UserID:   admin.ID,
		Role:     []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		log.Println("sign token:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"data":    utils.M{"token": token, "username": admin.Username},
	})
}

// EnsureDefaultAdmin seeds the admin account from ADMIN_USERNAME and
// ADMIN_PASSWORD when the collection is empty. Without the env vars no
// account is created and login stays impossible.
func EnsureDefaultAdmin(ctx context.Context) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Println("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	err := db.AdminsCollection.FindOne(ctx, bson.M{"username": username}).Err()
	if err == nil {
		return
	}
	if err != mongo.ErrNoDocuments {
		log.Println("admin seed lookup:", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("admin seed hash:", err)
		return
	}

	_, err = db.AdminsCollection.InsertOne(ctx, bson.M{
		"adminid":      utils.GenerateID(),
		"username":     username,
		"passwordHash": string(hash),
		"createdAt":    time.Now(),
	})
	if err != nil {
		log.Println("admin seed insert:", err)
		return
	}
	log.Printf("seeded admin account %q", username)
}
