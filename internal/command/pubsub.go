package command

import (
	"github.com/radartdb/radart/internal/pubsub"
	"github.com/radartdb/radart/internal/respio"
	"github.com/radartdb/radart/internal/server"
)

func cmdSubscribe(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 2); err != nil {
		return true, w.WriteError(err.Error())
	}
	for _, chArg := range args[1:] {
		channel := string(chArg)
		if _, already := s.Subscriptions[channel]; !already {
			sh := s.Router.For(chArg)
			var sub *pubsub.Subscriber
			sh.Submit(chArg, func(sh *server.Shard) server.Reply {
				sub = sh.PubSub.Subscribe(channel)
				return server.Reply{}
			})
			s.Subscriptions[channel] = subscription{shard: sh, sub: sub}
			s.forwardSubscription(channel, sub)
		}
		if err := w.WriteArrayHeader(3); err != nil {
			return true, err
		}
		if err := w.WriteBulkString([]byte("subscribe")); err != nil {
			return true, err
		}
		if err := w.WriteBulkString(chArg); err != nil {
			return true, err
		}
		if err := w.WriteInteger(int64(len(s.Subscriptions))); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdUnsubscribe(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	channels := args[1:]
	if len(channels) == 0 {
		for ch := range s.Subscriptions {
			channels = append(channels, []byte(ch))
		}
	}
	for _, chArg := range channels {
		channel := string(chArg)
		if sub, ok := s.Subscriptions[channel]; ok {
			sh := sub.shard
			sh.Submit(chArg, func(sh *server.Shard) server.Reply {
				sh.PubSub.Unsubscribe(channel, sub.sub)
				return server.Reply{}
			})
			sub.sub.Close()
			delete(s.Subscriptions, channel)
		}
		if err := w.WriteArrayHeader(3); err != nil {
			return true, err
		}
		if err := w.WriteBulkString([]byte("unsubscribe")); err != nil {
			return true, err
		}
		if err := w.WriteBulkString(chArg); err != nil {
			return true, err
		}
		if err := w.WriteInteger(int64(len(s.Subscriptions))); err != nil {
			return true, err
		}
	}
	return true, nil
}

func cmdPublish(s *Session, w *respio.Writer, args [][]byte) (bool, error) {
	if err := arity(args, 3); err != nil {
		return true, w.WriteError(err.Error())
	}
	channel := string(args[1])
	message := args[2]
	sh := s.Router.For(args[1])
	r := sh.Submit(args[1], func(sh *server.Shard) server.Reply {
		return server.Reply{Value: sh.PubSub.Publish(channel, message)}
	})
	return true, w.WriteInteger(int64(r.Value.(int)))
}
