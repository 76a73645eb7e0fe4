package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	socialmodel "TeamHive/module/social/model"
	userservice "TeamHive/module/user/service"
	"TeamHive/service/dispatcher"
	"TeamHive/tools/errs"
)

func coll() *mongo.Collection { return (&socialmodel.Social{}).Collection() }

// EnsureIndexes 唯一索引：user_id
func EnsureIndexes(ctx context.Context) error {
	_, err := coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errs.WrapMsg(err, "social indexes")
}

// GetProfile never 404s: a user without a social document just has an empty
// graph.
func GetProfile(ctx context.Context, userID string) (*socialmodel.Social, error) {
	var s socialmodel.Social
	err := coll().FindOne(ctx, bson.M{"user_id": userID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return &socialmodel.Social{
			UserID:   userID,
			Friends:  []string{},
			Sent:     []socialmodel.SentRequest{},
			Received: []socialmodel.ReceivedRequest{},
		}, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find social")
	}
	return &s, nil
}

func ensureDoc(sc mongo.SessionContext, userID string) error {
	_, err := coll().UpdateOne(sc,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"user_id":     userID,
			"friends":     []string{},
			"sent":        []socialmodel.SentRequest{},
			"received":    []socialmodel.ReceivedRequest{},
			"update_time": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// inTxn wraps the paired dual-document writes: either both sides of the
// relationship move, or neither does.
func inTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := coll().Database().Client().StartSession()
	if err != nil {
		return errs.WrapMsg(err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// sendGuard evaluates the pair state machine from the sender's snapshot:
// self-requests, existing friendships and pending requests in either
// direction all block a new send. A live inbound request from the recipient
// has to be resolved first, so a double-pending pair can never exist.
func sendGuard(sender *socialmodel.Social, recipientID string) error {
	if sender.UserID == recipientID {
		return errs.ErrValidation.WrapMsg("cannot send a friend request to yourself")
	}
	if sender.HasFriend(recipientID) {
		return errs.ErrConflict.WrapMsg("already friends")
	}
	if sender.HasPendingSent(recipientID) {
		return errs.ErrConflict.WrapMsg("request already pending")
	}
	if sender.HasPendingReceived(recipientID) {
		return errs.ErrConflict.WrapMsg("pending request from this user exists")
	}
	return nil
}

// SendRequest moves the (sender,recipient) pair from None to sender→recipient
// Pending. The snapshot guard gives a precise error message; the update
// filter re-encodes the same preconditions so a concurrent mutation between
// snapshot and write still cannot break the invariant.
func SendRequest(ctx context.Context, senderID, recipientID string) error {
	sender, err := GetProfile(ctx, senderID)
	if err != nil {
		return err
	}
	if err := sendGuard(sender, recipientID); err != nil {
		return err
	}
	if _, err := userservice.GetByID(ctx, recipientID); err != nil {
		return err
	}

	now := time.Now()
	err = inTxn(ctx, func(sc mongo.SessionContext) error {
		if err := ensureDoc(sc, senderID); err != nil {
			return err
		}
		if err := ensureDoc(sc, recipientID); err != nil {
			return err
		}
		// 前置条件编码进 filter：并发重复发送只会成功一次
		res, err := coll().UpdateOne(sc,
			bson.M{
				"user_id": senderID,
				"friends": bson.M{"$ne": recipientID},
				"sent": bson.M{"$not": bson.M{"$elemMatch": bson.M{
					"user_id": recipientID, "status": socialmodel.RequestPending,
				}}},
				"received": bson.M{"$not": bson.M{"$elemMatch": bson.M{
					"user_id": recipientID, "status": socialmodel.RequestPending,
				}}},
			},
			bson.M{
				"$push": bson.M{"sent": socialmodel.SentRequest{
					UserID: recipientID, Status: socialmodel.RequestPending,
				}},
				"$set": bson.M{"update_time": now},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errs.ErrConflict.WrapMsg("request state changed, resolve the existing one first")
		}
		_, err = coll().UpdateOne(sc,
			bson.M{"user_id": recipientID},
			bson.M{
				"$push": bson.M{"received": socialmodel.ReceivedRequest{
					UserID: senderID, RequestedAt: now, Status: socialmodel.RequestPending,
				}},
				"$set": bson.M{"update_time": now},
			},
		)
		return err
	})
	if err != nil {
		return errs.WrapMsg(err, "send friend request")
	}
	dispatcher.Publish(dispatcher.Event{Type: "friend.request.sent", ActorID: senderID, SubjectID: recipientID})
	return nil
}

// AcceptRequest resolves a pending inbound request into a friendship.
// Both pending entries disappear and both friends sets gain the other side.
// A second accept finds no pending entry and fails NotFound.
func AcceptRequest(ctx context.Context, recipientID, senderID string) error {
	err := inTxn(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		res, err := coll().UpdateOne(sc,
			bson.M{
				"user_id": recipientID,
				"received": bson.M{"$elemMatch": bson.M{
					"user_id": senderID, "status": socialmodel.RequestPending,
				}},
			},
			bson.M{
				"$pull":     bson.M{"received": bson.M{"user_id": senderID, "status": socialmodel.RequestPending}},
				"$addToSet": bson.M{"friends": senderID},
				"$set":      bson.M{"update_time": now},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errs.ErrNotFound.WrapMsg("no pending request from user", "senderID", senderID)
		}
		_, err = coll().UpdateOne(sc,
			bson.M{"user_id": senderID},
			bson.M{
				"$pull":     bson.M{"sent": bson.M{"user_id": recipientID, "status": socialmodel.RequestPending}},
				"$addToSet": bson.M{"friends": recipientID},
				"$set":      bson.M{"update_time": now},
			},
		)
		return err
	})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return err
		}
		return errs.WrapMsg(err, "accept friend request")
	}
	dispatcher.Publish(dispatcher.Event{Type: "friend.request." + socialmodel.RequestAccepted, ActorID: recipientID, SubjectID: senderID})
	return nil
}

// RejectRequest removes the pending pair without creating a friendship.
func RejectRequest(ctx context.Context, recipientID, senderID string) error {
	err := removePendingPair(ctx, recipientID, senderID)
	if err != nil {
		return err
	}
	dispatcher.Publish(dispatcher.Event{Type: "friend.request." + socialmodel.RequestRejected, ActorID: recipientID, SubjectID: senderID})
	return nil
}

// CancelRequest is the sender-side withdrawal of an outbound request.
// The round trip send→cancel leaves both documents exactly as before.
func CancelRequest(ctx context.Context, senderID, recipientID string) error {
	err := removePendingPair(ctx, recipientID, senderID)
	if err != nil {
		return err
	}
	dispatcher.Publish(dispatcher.Event{Type: "friend.request." + socialmodel.RequestCancelled, ActorID: senderID, SubjectID: recipientID})
	return nil
}

// removePendingPair drops the pending entries of the sender→recipient
// request from both documents. NotFound when nothing matched.
func removePendingPair(ctx context.Context, recipientID, senderID string) error {
	err := inTxn(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		res, err := coll().UpdateOne(sc,
			bson.M{
				"user_id": recipientID,
				"received": bson.M{"$elemMatch": bson.M{
					"user_id": senderID, "status": socialmodel.RequestPending,
				}},
			},
			bson.M{
				"$pull": bson.M{"received": bson.M{"user_id": senderID, "status": socialmodel.RequestPending}},
				"$set":  bson.M{"update_time": now},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errs.ErrNotFound.WrapMsg("no pending request between users")
		}
		_, err = coll().UpdateOne(sc,
			bson.M{"user_id": senderID},
			bson.M{
				"$pull": bson.M{"sent": bson.M{"user_id": recipientID, "status": socialmodel.RequestPending}},
				"$set":  bson.M{"update_time": now},
			},
		)
		return err
	})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return err
		}
		return errs.WrapMsg(err, "resolve friend request")
	}
	return nil
}

// RemoveFriend severs the symmetric relation on both sides.
func RemoveFriend(ctx context.Context, userID, otherID string) error {
	err := inTxn(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		res, err := coll().UpdateOne(sc,
			bson.M{"user_id": userID, "friends": otherID},
			bson.M{
				"$pull": bson.M{"friends": otherID},
				"$set":  bson.M{"update_time": now},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errs.ErrNotFound.WrapMsg("not friends")
		}
		_, err = coll().UpdateOne(sc,
			bson.M{"user_id": otherID},
			bson.M{
				"$pull": bson.M{"friends": userID},
				"$set":  bson.M{"update_time": now},
			},
		)
		return err
	})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return err
		}
		return errs.WrapMsg(err, "remove friend")
	}
	dispatcher.Publish(dispatcher.Event{Type: "friend.removed", ActorID: userID, SubjectID: otherID})
	return nil
}
