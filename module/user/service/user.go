package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"TeamHive/global"
	usermodel "TeamHive/module/user/model"
	"TeamHive/tools/errs"
	"TeamHive/tools/ids"
	jwtlib "TeamHive/tools/security"
)

func coll() *mongo.Collection { return (&usermodel.User{}).Collection() }

// EnsureIndexes 唯一索引：email；稀疏唯一：google_id
func EnsureIndexes(ctx context.Context) error {
	_, err := coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return errs.WrapMsg(err, "user indexes")
}

func Register(ctx context.Context, fullName, email, password, confirm string) (*usermodel.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" || password == "" {
		return nil, errs.ErrValidation.WrapMsg("fullName, email and password are required")
	}
	if password != confirm {
		return nil, errs.ErrValidation.WrapMsg("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.WrapMsg(err, "hash password")
	}

	now := time.Now()
	u := &usermodel.User{
		UserID:       ids.GenerateString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		CreateTime:   now,
		UpdateTime:   now,
	}
	if _, err := coll().InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrConflict.WrapMsg("email already registered")
		}
		return nil, errs.WrapMsg(err, "insert user")
	}
	return u, nil
}

// Login 校验密码并签发会话令牌。
func Login(ctx context.Context, email, password string) (*usermodel.User, string, error) {
	email = normalizeEmail(email)
	u, err := GetByEmail(ctx, email)
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return nil, "", errs.ErrUnauthenticated.WrapMsg("bad credentials")
		}
		return nil, "", err
	}
	if u.PasswordHash == "" {
		// 外部登录用户没有本地口令
		return nil, "", errs.ErrUnauthenticated.WrapMsg("bad credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", errs.ErrUnauthenticated.WrapMsg("bad credentials")
	}
	token, err := issueToken(u.UserID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ExternalProfile is what the opaque credential-verification capability
// yields after exchanging an OAuth code. The exchange itself lives outside
// this module.
type ExternalProfile struct {
	GoogleID string
	Email    string
	FullName string
	FaceURL  string
}

type ExternalVerifier interface {
	Exchange(ctx context.Context, code string) (ExternalProfile, error)
}

// GoogleLogin upserts the user for a verified external profile and issues a
// session token.
func GoogleLogin(ctx context.Context, p ExternalProfile) (*usermodel.User, string, error) {
	if p.GoogleID == "" || p.Email == "" {
		return nil, "", errs.ErrValidation.WrapMsg("incomplete external profile")
	}
	now := time.Now()

	after := options.After
	res := coll().FindOneAndUpdate(ctx,
		bson.M{"$or": bson.A{
			bson.M{"google_id": p.GoogleID},
			bson.M{"email": normalizeEmail(p.Email)},
		}},
		bson.M{
			"$set": bson.M{
				"google_id":   p.GoogleID,
				"update_time": now,
			},
			"$setOnInsert": bson.M{
				"user_id":     ids.GenerateString(),
				"full_name":   p.FullName,
				"email":       normalizeEmail(p.Email),
				"face_url":    p.FaceURL,
				"create_time": now,
			},
		},
		&options.FindOneAndUpdateOptions{Upsert: ptr(true), ReturnDocument: &after},
	)
	var u usermodel.User
	if err := res.Decode(&u); err != nil {
		return nil, "", errs.WrapMsg(err, "google upsert")
	}
	token, err := issueToken(u.UserID)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

func GetByID(ctx context.Context, userID string) (*usermodel.User, error) {
	var u usermodel.User
	err := coll().FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("user not found", "userID", userID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user")
	}
	return &u, nil
}

func GetByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	var u usermodel.User
	err := coll().FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("user not found", "email", email)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user")
	}
	return &u, nil
}

// ResolveMany returns the users for the given ids; a missing id is an error
// because membership references must stay valid.
func ResolveMany(ctx context.Context, userIDs []string) ([]usermodel.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	cur, err := coll().Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errs.WrapMsg(err, "resolve users")
	}
	var users []usermodel.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, errs.WrapMsg(err, "decode users")
	}
	if len(users) != len(dedup(userIDs)) {
		return nil, errs.ErrValidation.WrapMsg("one or more members do not exist")
	}
	return users, nil
}

type ProfilePatch struct {
	FullName *string `json:"fullName"`
	Bio      *string `json:"bio"`
	FaceURL  *string `json:"profilePhotoUrl"`
}

func UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*usermodel.User, error) {
	set := bson.M{"update_time": time.Now()}
	if patch.FullName != nil {
		if strings.TrimSpace(*patch.FullName) == "" {
			return nil, errs.ErrValidation.WrapMsg("fullName cannot be empty")
		}
		set["full_name"] = strings.TrimSpace(*patch.FullName)
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.FaceURL != nil {
		set["face_url"] = *patch.FaceURL
	}

	after := options.After
	res := coll().FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	)
	var u usermodel.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound.WrapMsg("user not found", "userID", userID)
		}
		return nil, errs.WrapMsg(err, "update profile")
	}
	return &u, nil
}

// SetPresence flips the online flag. Only the presence broadcaster calls this.
func SetPresence(ctx context.Context, userID string, online bool, lastSeen *time.Time) error {
	set := bson.M{"is_online": online, "update_time": time.Now()}
	if lastSeen != nil {
		set["last_seen"] = *lastSeen
	}
	_, err := coll().UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	return errs.WrapMsg(err, "set presence", "userID", userID)
}

func issueToken(userID string) (string, error) {
	token, _, _, err := jwtlib.Generate(jwtlib.DefaultOptions(global.GetJwtSecret()), userID)
	if err != nil {
		return "", errs.WrapMsg(err, "issue token")
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ptr[T any](v T) *T { return &v }

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
