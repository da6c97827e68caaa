// Package mongostore provides a MongoDB session.Store.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "app")
//	if err != nil {
//		return err
//	}
//
//	store := mongostore.New(db.Collection("sessions"))
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//	mgr := session.NewManager(session.WithStore(store))
package mongostore
